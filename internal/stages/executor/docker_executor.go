package executor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/mini-maxit/judge-harness/internal/docker"
	"github.com/mini-maxit/judge-harness/internal/logger"
	"github.com/mini-maxit/judge-harness/pkg/constants"
	"github.com/mini-maxit/judge-harness/utils"
	"go.uber.org/zap"
)

const (
	cleanupTimeout = 10 * time.Second
	// exit status when timeout(1) ends the command with SIGKILL
	timeoutExitKilled = 137
	execGracePeriod   = 2 * time.Second
)

type dockerExecutor struct {
	docker      docker.DockerClient
	containerID string
	messageID   string
	logger      *zap.SugaredLogger
}

// NewDockerExecutor starts a hardened warm container for one submission and
// copies the workspace into it. Commands then run through docker exec.
func NewDockerExecutor(ctx context.Context, dCli docker.DockerClient, cfg SessionConfig) (Executor, error) {
	log := logger.NewNamedLogger("docker-executor")

	dockerImage, err := cfg.LanguageType.GetDockerImage(cfg.LanguageVersion)
	if err != nil {
		return nil, err
	}

	if err := dCli.EnsureImage(ctx, dockerImage); err != nil {
		log.Errorf("Failed to ensure image %s: %s [MsgID: %s]", dockerImage, err, cfg.MessageID)
		return nil, err
	}

	containerID, err := dCli.CreateContainer(
		ctx,
		buildContainerConfig(dockerImage),
		buildHostConfig(),
		SanitizeContainerName(cfg.MessageID),
	)
	if err != nil {
		return nil, err
	}

	d := &dockerExecutor{docker: dCli, containerID: containerID, messageID: cfg.MessageID, logger: log}

	if err := d.prepare(ctx, cfg.WorkspaceDir); err != nil {
		if closeErr := d.Close(); closeErr != nil {
			log.Errorf("Failed to remove container %s: %s [MsgID: %s]", containerID, closeErr, cfg.MessageID)
		}
		return nil, err
	}

	log.Infof("Container %s ready [MsgID: %s]", containerID, cfg.MessageID)
	return d, nil
}

func (d *dockerExecutor) prepare(ctx context.Context, workspaceDir string) error {
	archive, err := utils.CreateTarArchive(workspaceDir, constants.ContainerWorkDir[1:])
	if err != nil {
		return err
	}
	defer archive.Close()

	if err := d.docker.CopyToContainer(ctx, d.containerID, "/", archive); err != nil {
		return fmt.Errorf("failed to copy workspace: %w", err)
	}

	return d.docker.StartContainer(ctx, d.containerID)
}

func (d *dockerExecutor) ExecuteCommand(ctx context.Context, cmd Command) (*ExecutionResult, error) {
	if len(cmd.Args) == 0 {
		return nil, errors.New("empty command")
	}

	args := cmd.Args
	execCtx := ctx
	if cmd.TimeLimit > 0 {
		args = withTimeout(cmd.Args, cmd.TimeLimit)
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, cmd.TimeLimit+execGracePeriod)
		defer cancel()
	}

	start := time.Now()
	out, err := d.docker.Exec(execCtx, d.containerID, docker.ExecRequest{
		Cmd:        args,
		WorkingDir: constants.ContainerWorkDir,
		Stdin:      cmd.Stdin,
	})
	duration := time.Since(start)

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		if execCtx.Err() != nil {
			return &ExecutionResult{
				ExitCode: constants.ExitCodeTimeLimitExceeded,
				TimedOut: true,
				Duration: duration,
			}, nil
		}
		return nil, err
	}

	result := &ExecutionResult{
		ExitCode: out.ExitCode,
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
		Duration: duration,
	}
	if cmd.TimeLimit > 0 &&
		(out.ExitCode == constants.ExitCodeTimeLimitExceeded || out.ExitCode == timeoutExitKilled) &&
		duration >= cmd.TimeLimit {
		result.TimedOut = true
		return result, nil
	}
	result.Signal = signalFromExitCode(out.ExitCode)
	return result, nil
}

func (d *dockerExecutor) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	d.logger.Infof("Removing container %s [MsgID: %s]", d.containerID, d.messageID)
	return d.docker.ContainerRemove(ctx, d.containerID)
}

// withTimeout wraps a command with timeout(1) using whole seconds, which both
// coreutils and busybox accept.
func withTimeout(args []string, limit time.Duration) []string {
	secs := int(math.Ceil(limit.Seconds()))
	if secs < 1 {
		secs = 1
	}
	wrapped := []string{"timeout", "-s", "KILL", strconv.Itoa(secs)}
	return append(wrapped, args...)
}

func buildContainerConfig(dockerImage string) *container.Config {
	stopTimeout := 1

	return &container.Config{
		Image:           dockerImage,
		Cmd:             []string{"tail", "-f", "/dev/null"},
		WorkingDir:      constants.ContainerWorkDir,
		NetworkDisabled: true,
		StopTimeout:     &stopTimeout,
		StopSignal:      "SIGKILL",
	}
}

func buildHostConfig() *container.HostConfig {
	pidsLimit := constants.ContainerPidsLimit

	return &container.HostConfig{
		AutoRemove:  false,
		NetworkMode: container.NetworkMode("none"),
		Resources: container.Resources{
			Memory:     constants.ContainerMemoryBytes,
			MemorySwap: constants.ContainerMemoryBytes,
			PidsLimit:  &pidsLimit,
			CPUPeriod:  constants.ContainerCPUPeriod,
			CPUQuota:   constants.ContainerCPUQuota,
		},
		Tmpfs:        map[string]string{"/tmp": constants.ContainerTmpfsOptions},
		SecurityOpt:  []string{"no-new-privileges"},
		CgroupnsMode: container.CgroupnsModePrivate,
		IpcMode:      container.IpcMode("private"),
		CapDrop:      []string{"ALL"},
	}
}
