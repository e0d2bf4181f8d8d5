package compiler

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/mini-maxit/judge-harness/internal/signature"
	"github.com/mini-maxit/judge-harness/internal/stages/executor"
	"github.com/mini-maxit/judge-harness/pkg/constants"
	customErr "github.com/mini-maxit/judge-harness/pkg/errors"
	"github.com/mini-maxit/judge-harness/pkg/languages"
	"github.com/mini-maxit/judge-harness/utils"
)

const compileTimeLimit = 30 * time.Second

//go:embed templates/*.tmpl
var driverTemplates embed.FS

// BuildError reports a solution that cannot be compiled or whose entry point
// cannot be resolved. Err is ErrCompilationFailed or ErrEntryPointNotFound.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	if e.Output == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Output
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

func newBuildError(err error, res *executor.ExecutionResult) *BuildError {
	output := utils.TrimOutput(res.Stderr, constants.MaxCapturedStderr)
	if output == "" {
		output = utils.TrimOutput(res.Stdout, constants.MaxCapturedStderr)
	}
	if res.TimedOut {
		output = fmt.Sprintf("timed out after %s", compileTimeLimit)
	}
	return &BuildError{Err: err, Output: output}
}

// Artifact is a built driver ready to be invoked once per test case.
type Artifact struct {
	Command []string
}

type Compiler interface {
	// PrepareDriver renders the language driver for sig into the workspace.
	PrepareDriver(workspaceDir string, langType languages.LanguageType, sig signature.Signature) error
	// Build compiles the workspace through exec. A *BuildError is returned when
	// the solution itself is at fault.
	Build(
		ctx context.Context,
		exec executor.Executor,
		langType languages.LanguageType,
		langVersion string,
		messageID string,
	) (*Artifact, error)
}

// LanguageCompiler is a language-specific compiler invoked internally.
type LanguageCompiler interface {
	Compile(ctx context.Context, exec executor.Executor, messageID string) (*Artifact, error)
}

type compiler struct {
	cppFlags []string
}

func NewCompiler(cppFlags []string) Compiler {
	return &compiler{cppFlags: cppFlags}
}

func (c *compiler) PrepareDriver(workspaceDir string, langType languages.LanguageType, sig signature.Signature) error {
	if err := sig.Validate(); err != nil {
		return err
	}

	name, err := languages.GetSolutionFileNameWithExtension(constants.DriverFileBaseName, langType)
	if err != nil {
		return err
	}
	tmpl, err := template.New(name+".tmpl").Funcs(templateFuncs).ParseFS(driverTemplates, "templates/"+name+".tmpl")
	if err != nil {
		return err
	}

	file, err := os.Create(filepath.Join(workspaceDir, name))
	if err != nil {
		return err
	}
	defer file.Close()

	return tmpl.Execute(file, sig)
}

func (c *compiler) Build(
	ctx context.Context,
	exec executor.Executor,
	langType languages.LanguageType,
	langVersion string,
	messageID string,
) (*Artifact, error) {
	langCompiler, err := c.initializeSolutionCompiler(langType, langVersion, messageID)
	if err != nil {
		return nil, err
	}

	return langCompiler.Compile(ctx, exec, messageID)
}

func (c *compiler) initializeSolutionCompiler(
	langType languages.LanguageType,
	langVersion string,
	messageID string,
) (LanguageCompiler, error) {
	switch langType {
	case languages.CPP:
		return NewCppCompiler(langVersion, c.cppFlags, messageID)
	case languages.PYTHON:
		return NewPythonCompiler(langVersion, messageID)
	default:
		return nil, customErr.ErrInvalidLanguageType
	}
}

var cppTypes = map[signature.Kind]string{
	signature.KindInt:         "int",
	signature.KindIntArray:    "vector<int>",
	signature.KindString:      "string",
	signature.KindStringArray: "vector<string>",
	signature.KindBool:        "bool",
}

var templateFuncs = template.FuncMap{
	"cppType": func(k signature.Kind) string { return cppTypes[k] },
	"reader": func(k signature.Kind) string {
		return "read_" + strings.NewReplacer("[]", "_array").Replace(string(k))
	},
}
