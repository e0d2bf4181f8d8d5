package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"syscall"
	"time"

	"github.com/mini-maxit/judge-harness/internal/logger"
	"github.com/mini-maxit/judge-harness/pkg/constants"
	"go.uber.org/zap"
)

const killGracePeriod = 500 * time.Millisecond

type hostExecutor struct {
	workDir   string
	messageID string
	logger    *zap.SugaredLogger
}

// NewHostExecutor runs commands as child processes of the current process.
// Isolation is left to the surrounding container.
func NewHostExecutor(workDir, messageID string) Executor {
	return &hostExecutor{
		workDir:   workDir,
		messageID: messageID,
		logger:    logger.NewNamedLogger("host-executor"),
	}
}

func (h *hostExecutor) ExecuteCommand(ctx context.Context, cmd Command) (*ExecutionResult, error) {
	if len(cmd.Args) == 0 {
		return nil, errors.New("empty command")
	}

	runCtx := ctx
	if cmd.TimeLimit > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.TimeLimit)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(runCtx, cmd.Args[0], cmd.Args[1:]...)
	c.Dir = h.workDir
	c.Stdin = bytes.NewReader(cmd.Stdin)
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.WaitDelay = killGracePeriod

	start := time.Now()
	err := c.Run()
	result := &ExecutionResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if runCtx.Err() != nil {
		h.logger.Warnf("Command %s exceeded %s [MsgID: %s]", cmd.Args[0], cmd.TimeLimit, h.messageID)
		result.TimedOut = true
		result.ExitCode = constants.ExitCodeTimeLimitExceeded
		return result, nil
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = constants.ExitCodeSuccess
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			result.Signal = signalName(status.Signal())
			result.ExitCode = constants.ExitCodeSignalBase + int(status.Signal())
		}
	default:
		return nil, err
	}
	return result, nil
}

func (h *hostExecutor) Close() error {
	return nil
}
