package compiler

import (
	"context"

	"github.com/mini-maxit/judge-harness/internal/logger"
	"github.com/mini-maxit/judge-harness/internal/stages/executor"
	"github.com/mini-maxit/judge-harness/pkg/constants"
	customErr "github.com/mini-maxit/judge-harness/pkg/errors"
	"github.com/mini-maxit/judge-harness/pkg/languages"
	"go.uber.org/zap"
)

type PythonCompiler struct {
	interpreter string
	logger      *zap.SugaredLogger
}

// Compile byte-compiles the candidate source and asks the driver to resolve
// the entry point without running any test.
func (e *PythonCompiler) Compile(ctx context.Context, exec executor.Executor, messageID string) (*Artifact, error) {
	solutionFile := constants.SolutionFileBaseName + ".py"
	driverFile := constants.DriverFileBaseName + ".py"

	e.logger.Infof("Byte-compiling %s [MsgID: %s]", solutionFile, messageID)
	res, err := exec.ExecuteCommand(ctx, executor.Command{
		Args:      []string{e.interpreter, "-m", "py_compile", solutionFile},
		TimeLimit: compileTimeLimit,
	})
	if err != nil {
		return nil, err
	}
	if res.TimedOut || res.ExitCode != constants.ExitCodeSuccess {
		return nil, newBuildError(customErr.ErrCompilationFailed, res)
	}

	res, err = exec.ExecuteCommand(ctx, executor.Command{
		Args:      []string{e.interpreter, driverFile, "--check"},
		TimeLimit: compileTimeLimit,
	})
	if err != nil {
		return nil, err
	}
	switch {
	case res.ExitCode == constants.ExitCodeEntryPointMissing:
		e.logger.Infof("Entry point not found [MsgID: %s]", messageID)
		return nil, newBuildError(customErr.ErrEntryPointNotFound, res)
	case res.TimedOut || res.ExitCode != constants.ExitCodeSuccess:
		return nil, newBuildError(customErr.ErrCompilationFailed, res)
	}

	e.logger.Infof("Entry point resolved [MsgID: %s]", messageID)
	return &Artifact{Command: []string{e.interpreter, driverFile}}, nil
}

func NewPythonCompiler(version, messageID string) (*PythonCompiler, error) {
	logger := logger.NewNamedLogger("python-compiler")
	interpreter, err := languages.GetVersionFlag(languages.PYTHON, version)
	if err != nil {
		logger.Errorf("Failed to get interpreter. %s [MsgID: %s]", err.Error(), messageID)
		return nil, err
	}
	return &PythonCompiler{interpreter: interpreter, logger: logger}, nil
}
