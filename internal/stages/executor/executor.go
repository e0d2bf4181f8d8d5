package executor

import (
	"context"
	"fmt"
	"regexp"
	"syscall"
	"time"

	"github.com/mini-maxit/judge-harness/internal/docker"
	"github.com/mini-maxit/judge-harness/pkg/constants"
	"github.com/mini-maxit/judge-harness/pkg/errors"
	"github.com/mini-maxit/judge-harness/pkg/languages"
	"golang.org/x/sys/unix"
)

var containerNameRegex = regexp.MustCompile("[^a-zA-Z0-9_.-]")

// Command is a single program invocation inside a submission workspace.
// A zero TimeLimit means no per-command limit.
type Command struct {
	Args      []string
	Stdin     []byte
	TimeLimit time.Duration
}

// ExecutionResult is the outcome of one command. Signal names the signal that
// terminated the process, e.g. SIGSEGV, and is empty for a normal exit.
type ExecutionResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	TimedOut bool
	Signal   string
	Duration time.Duration
}

// Executor runs commands against one prepared workspace.
type Executor interface {
	ExecuteCommand(ctx context.Context, cmd Command) (*ExecutionResult, error)
	Close() error
}

// SessionConfig identifies the workspace an executor is opened for.
type SessionConfig struct {
	MessageID       string
	WorkspaceDir    string
	LanguageType    languages.LanguageType
	LanguageVersion string
}

// Factory opens an executor per submission.
type Factory interface {
	NewExecutor(ctx context.Context, cfg SessionConfig) (Executor, error)
}

type hostFactory struct{}

type dockerFactory struct {
	docker docker.DockerClient
}

// NewFactory selects the execution backend. The docker client is only
// required for docker mode.
func NewFactory(mode string, dCli docker.DockerClient) (Factory, error) {
	switch mode {
	case constants.ExecutionModeHost:
		return hostFactory{}, nil
	case constants.ExecutionModeDocker:
		if dCli == nil {
			return nil, fmt.Errorf("%w: docker mode requires a docker client", errors.ErrInvalidExecutionMode)
		}
		return dockerFactory{docker: dCli}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrInvalidExecutionMode, mode)
	}
}

func (hostFactory) NewExecutor(_ context.Context, cfg SessionConfig) (Executor, error) {
	return NewHostExecutor(cfg.WorkspaceDir, cfg.MessageID), nil
}

func (f dockerFactory) NewExecutor(ctx context.Context, cfg SessionConfig) (Executor, error) {
	return NewDockerExecutor(ctx, f.docker, cfg)
}

func SanitizeContainerName(raw string) string {
	cleaned := containerNameRegex.ReplaceAllString(raw, "-")
	if cleaned == "" {
		cleaned = "untitled"
	}
	return constants.ContainerNamePrefix + cleaned
}

func signalName(sig syscall.Signal) string {
	if name := unix.SignalName(sig); name != "" {
		return name
	}
	return sig.String()
}

// signalFromExitCode decodes the 128+N status a container runtime reports
// for a process terminated by signal N. Unknown signal numbers yield "".
func signalFromExitCode(code int) string {
	sig := code - constants.ExitCodeSignalBase
	if sig <= 0 {
		return ""
	}
	return unix.SignalName(syscall.Signal(sig))
}
