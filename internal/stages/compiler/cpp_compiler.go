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

type CppCompiler struct {
	version string
	flags   []string
	logger  *zap.SugaredLogger
}

// Compile builds the driver, which includes the candidate source, into a
// single executable.
func (e *CppCompiler) Compile(ctx context.Context, exec executor.Executor, messageID string) (*Artifact, error) {
	args := []string{"g++", "-std=" + e.version}
	args = append(args, e.flags...)
	args = append(args, "-o", constants.ExecutableFileName, constants.DriverFileBaseName+".cpp")

	e.logger.Infof("Compiling with %v [MsgID: %s]", args, messageID)
	res, err := exec.ExecuteCommand(ctx, executor.Command{Args: args, TimeLimit: compileTimeLimit})
	if err != nil {
		e.logger.Errorf("Error running compiler. %s [MsgID: %s]", err, messageID)
		return nil, err
	}
	if res.TimedOut || res.ExitCode != constants.ExitCodeSuccess {
		e.logger.Infof("Compilation failed with exit code %d [MsgID: %s]", res.ExitCode, messageID)
		return nil, newBuildError(customErr.ErrCompilationFailed, res)
	}

	e.logger.Infof("Compilation successful [MsgID: %s]", messageID)
	return &Artifact{Command: []string{"./" + constants.ExecutableFileName}}, nil
}

func NewCppCompiler(version string, flags []string, messageID string) (*CppCompiler, error) {
	logger := logger.NewNamedLogger("cpp-compiler")
	versionFlag, err := languages.GetVersionFlag(languages.CPP, version)
	if err != nil {
		logger.Errorf("Failed to get version flag. %s [MsgID: %s]", err.Error(), messageID)
		return nil, err
	}
	return &CppCompiler{
		version: versionFlag,
		flags:   flags,
		logger:  logger,
	}, nil
}
