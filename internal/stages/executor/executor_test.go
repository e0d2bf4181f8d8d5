package executor_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/mini-maxit/judge-harness/internal/docker"
	exec "github.com/mini-maxit/judge-harness/internal/stages/executor"
	"github.com/mini-maxit/judge-harness/pkg/constants"
	pkgerrors "github.com/mini-maxit/judge-harness/pkg/errors"
	"github.com/mini-maxit/judge-harness/pkg/languages"
	"github.com/mini-maxit/judge-harness/tests"
	mocks "github.com/mini-maxit/judge-harness/tests/mocks"
	"go.uber.org/mock/gomock"
)

func TestSanitizeContainerName(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"abc123", "judge-abc123"},
		{"A.B-C_D", "judge-A.B-C_D"},
		{"", "judge-untitled"},
		{"bad name!", "judge-bad-name-"},
	}

	for _, c := range cases {
		got := exec.SanitizeContainerName(c.in)
		if got != c.out {
			t.Fatalf("SanitizeContainerName(%q) = %q, want %q", c.in, got, c.out)
		}
	}
}

func TestNewFactory(t *testing.T) {
	if _, err := exec.NewFactory(constants.ExecutionModeHost, nil); err != nil {
		t.Fatalf("unexpected error for host mode: %v", err)
	}
	if _, err := exec.NewFactory(constants.ExecutionModeDocker, nil); !errors.Is(err, pkgerrors.ErrInvalidExecutionMode) {
		t.Fatalf("expected ErrInvalidExecutionMode without client, got %v", err)
	}
	if _, err := exec.NewFactory("vm", nil); !errors.Is(err, pkgerrors.ErrInvalidExecutionMode) {
		t.Fatalf("expected ErrInvalidExecutionMode, got %v", err)
	}
}

func TestHostExecutor_CapturesOutputAndExitCode(t *testing.T) {
	dir := t.TempDir()
	tests.WriteFile(t, dir, "marker.txt", "here")

	e := exec.NewHostExecutor(dir, "msg-host")
	defer e.Close()

	res, err := e.ExecuteCommand(context.Background(), exec.Command{
		Args:  []string{"sh", "-c", "cat marker.txt; cat; echo oops >&2; exit 3"},
		Stdin: []byte("-in"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Stdout) != "here-in" {
		t.Fatalf("unexpected stdout %q", res.Stdout)
	}
	if string(res.Stderr) != "oops\n" {
		t.Fatalf("unexpected stderr %q", res.Stderr)
	}
	if res.ExitCode != 3 || res.TimedOut {
		t.Fatalf("expected exit 3 without timeout, got %d (timed out %v)", res.ExitCode, res.TimedOut)
	}
}

func TestHostExecutor_ReportsTerminatingSignal(t *testing.T) {
	e := exec.NewHostExecutor(t.TempDir(), "msg-signal")

	res, err := e.ExecuteCommand(context.Background(), exec.Command{
		Args: []string{"sh", "-c", "kill -FPE $$"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Signal != "SIGFPE" {
		t.Fatalf("expected SIGFPE, got %q", res.Signal)
	}
	if res.ExitCode != constants.ExitCodeSignalBase+8 || res.TimedOut {
		t.Fatalf("expected exit code 136 without timeout, got %+v", res)
	}
}

func TestHostExecutor_NormalExitHasNoSignal(t *testing.T) {
	e := exec.NewHostExecutor(t.TempDir(), "msg-nosignal")

	res, err := e.ExecuteCommand(context.Background(), exec.Command{
		Args: []string{"sh", "-c", "exit 139"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Signal != "" || res.ExitCode != 139 {
		t.Fatalf("expected plain exit 139, got %+v", res)
	}
}

func TestHostExecutor_TimeLimit(t *testing.T) {
	e := exec.NewHostExecutor(t.TempDir(), "msg-tle")

	res, err := e.ExecuteCommand(context.Background(), exec.Command{
		Args:      []string{"sleep", "5"},
		TimeLimit: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.TimedOut || res.ExitCode != constants.ExitCodeTimeLimitExceeded {
		t.Fatalf("expected timeout, got %+v", res)
	}
}

func TestHostExecutor_ParentContextCancelled(t *testing.T) {
	e := exec.NewHostExecutor(t.TempDir(), "msg-cancel")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := e.ExecuteCommand(ctx, exec.Command{Args: []string{"sleep", "5"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}
}

func TestHostExecutor_MissingBinary(t *testing.T) {
	e := exec.NewHostExecutor(t.TempDir(), "msg-missing")
	if _, err := e.ExecuteCommand(context.Background(), exec.Command{Args: []string{"./nope"}}); err == nil {
		t.Fatalf("expected error for missing binary")
	}
}

func newDockerSession(t *testing.T, mockDocker *mocks.MockDockerClient) exec.Executor {
	t.Helper()

	gomock.InOrder(
		mockDocker.EXPECT().EnsureImage(gomock.Any(), "gcc:13").Return(nil),
		mockDocker.EXPECT().CreateContainer(gomock.Any(), gomock.Any(), gomock.Any(), "judge-msg-1").DoAndReturn(
			func(_ context.Context, cfg *container.Config, host *container.HostConfig, _ string) (string, error) {
				if cfg.WorkingDir != constants.ContainerWorkDir {
					t.Fatalf("unexpected working dir %q", cfg.WorkingDir)
				}
				if host.NetworkMode != "none" || len(host.CapDrop) != 1 || host.CapDrop[0] != "ALL" {
					t.Fatalf("container is not hardened: %+v", host)
				}
				if host.Resources.Memory != host.Resources.MemorySwap {
					t.Fatalf("expected swap to equal memory")
				}
				return "cid", nil
			}),
		mockDocker.EXPECT().CopyToContainer(gomock.Any(), "cid", "/", gomock.Any()).DoAndReturn(
			func(_ context.Context, _, _ string, content io.Reader) error {
				_, err := io.Copy(io.Discard, content)
				return err
			}),
		mockDocker.EXPECT().StartContainer(gomock.Any(), "cid").Return(nil),
	)

	dir := t.TempDir()
	tests.WriteFile(t, dir, "solution.cpp", "int f() { return 1; }")

	e, err := exec.NewDockerExecutor(context.Background(), mockDocker, exec.SessionConfig{
		MessageID:       "msg-1",
		WorkspaceDir:    dir,
		LanguageType:    languages.CPP,
		LanguageVersion: "17",
	})
	if err != nil {
		t.Fatalf("NewDockerExecutor failed: %v", err)
	}
	return e
}

func TestDockerExecutor_ExecuteAndClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDocker := mocks.NewMockDockerClient(ctrl)
	e := newDockerSession(t, mockDocker)

	mockDocker.EXPECT().Exec(gomock.Any(), "cid", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, req docker.ExecRequest) (*docker.ExecOutput, error) {
			want := []string{"timeout", "-s", "KILL", "2", "./solution.bin"}
			if len(req.Cmd) != len(want) {
				t.Fatalf("expected %v, got %v", want, req.Cmd)
			}
			for i := range want {
				if req.Cmd[i] != want[i] {
					t.Fatalf("expected %v, got %v", want, req.Cmd)
				}
			}
			if string(req.Stdin) != "3\n" {
				t.Fatalf("unexpected stdin %q", req.Stdin)
			}
			return &docker.ExecOutput{ExitCode: 0, Stdout: []byte("6\n")}, nil
		})

	res, err := e.ExecuteCommand(context.Background(), exec.Command{
		Args:      []string{"./solution.bin"},
		Stdin:     []byte("3\n"),
		TimeLimit: 1500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Stdout) != "6\n" || res.ExitCode != 0 || res.TimedOut {
		t.Fatalf("unexpected result %+v", res)
	}

	mockDocker.EXPECT().ContainerRemove(gomock.Any(), "cid").Return(nil)
	if err := e.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestDockerExecutor_DecodesSignalExitCode(t *testing.T) {
	tests := []struct {
		name     string
		exitCode int
		want     string
	}{
		{name: "segmentation fault", exitCode: 139, want: "SIGSEGV"},
		{name: "out of memory kill", exitCode: 137, want: "SIGKILL"},
		{name: "plain failure", exitCode: 1, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockDocker := mocks.NewMockDockerClient(ctrl)
			e := newDockerSession(t, mockDocker)

			mockDocker.EXPECT().Exec(gomock.Any(), "cid", gomock.Any()).
				Return(&docker.ExecOutput{ExitCode: tt.exitCode}, nil)

			res, err := e.ExecuteCommand(context.Background(), exec.Command{Args: []string{"./solution.bin"}})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Signal != tt.want || res.TimedOut {
				t.Fatalf("expected signal %q without timeout, got %+v", tt.want, res)
			}
		})
	}
}

func TestDockerExecutor_ExecError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDocker := mocks.NewMockDockerClient(ctrl)
	e := newDockerSession(t, mockDocker)

	mockDocker.EXPECT().Exec(gomock.Any(), "cid", gomock.Any()).Return(nil, errors.New("daemon gone"))
	if _, err := e.ExecuteCommand(context.Background(), exec.Command{Args: []string{"true"}}); err == nil {
		t.Fatalf("expected exec error")
	}

	mockDocker.EXPECT().ContainerRemove(gomock.Any(), "cid").Return(nil)
	_ = e.Close()
}

func TestDockerExecutor_CopyFailureRemovesContainer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDocker := mocks.NewMockDockerClient(ctrl)
	mockDocker.EXPECT().EnsureImage(gomock.Any(), "python:3.11-alpine").Return(nil)
	mockDocker.EXPECT().CreateContainer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("cid", nil)
	mockDocker.EXPECT().CopyToContainer(gomock.Any(), "cid", "/", gomock.Any()).Return(errors.New("copy failed"))
	mockDocker.EXPECT().ContainerRemove(gomock.Any(), "cid").Return(nil)

	_, err := exec.NewDockerExecutor(context.Background(), mockDocker, exec.SessionConfig{
		MessageID:       "msg-2",
		WorkspaceDir:    t.TempDir(),
		LanguageType:    languages.PYTHON,
		LanguageVersion: "3",
	})
	if err == nil {
		t.Fatalf("expected error when copy fails")
	}
}
