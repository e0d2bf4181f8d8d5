package docker

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	image "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

const execPollInterval = 20 * time.Millisecond

// ExecRequest describes a command run inside an already started container.
type ExecRequest struct {
	Cmd        []string
	WorkingDir string
	Stdin      []byte
}

type ExecOutput struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

type DockerClient interface {
	EnsureImage(ctx context.Context, imageName string) error
	CreateContainer(
		ctx context.Context,
		containerCfg *container.Config,
		hostCfg *container.HostConfig,
		name string,
	) (string, error)
	StartContainer(ctx context.Context, containerID string) error
	CopyToContainer(ctx context.Context, containerID, dstPath string, content io.Reader) error
	Exec(ctx context.Context, containerID string, req ExecRequest) (*ExecOutput, error)
	ContainerKill(ctx context.Context, containerID, signal string) error
	ContainerRemove(ctx context.Context, containerID string) error
}

type dockerClient struct {
	cli *client.Client
}

func NewDockerClient() (DockerClient, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}

	return &dockerClient{cli: cli}, nil
}

func (d *dockerClient) EnsureImage(ctx context.Context, imageName string) error {
	_, err := d.cli.ImageInspect(ctx, imageName)
	if err == nil {
		return nil
	}
	if !client.IsErrNotFound(err) {
		return err
	}

	reader, err := d.cli.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return err
	}
	defer reader.Close()
	_, err = io.Copy(io.Discard, reader)
	return err
}

func (d *dockerClient) CreateContainer(
	ctx context.Context,
	containerCfg *container.Config,
	hostCfg *container.HostConfig,
	name string,
) (string, error) {
	resp, err := d.cli.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, name)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (d *dockerClient) StartContainer(ctx context.Context, containerID string) error {
	return d.cli.ContainerStart(ctx, containerID, container.StartOptions{})
}

func (d *dockerClient) CopyToContainer(ctx context.Context, containerID, dstPath string, content io.Reader) error {
	return d.cli.CopyToContainer(ctx, containerID, dstPath, content, container.CopyToContainerOptions{})
}

// Exec runs a command to completion and returns its demultiplexed output.
func (d *dockerClient) Exec(ctx context.Context, containerID string, req ExecRequest) (*ExecOutput, error) {
	created, err := d.cli.ContainerExecCreate(ctx, containerID, container.ExecOptions{
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          req.Cmd,
		WorkingDir:   req.WorkingDir,
	})
	if err != nil {
		return nil, err
	}

	attached, err := d.cli.ContainerExecAttach(ctx, created.ID, container.ExecAttachOptions{})
	if err != nil {
		return nil, err
	}
	defer attached.Close()

	// Closing the hijacked connection unblocks the copy when ctx ends first.
	stop := context.AfterFunc(ctx, attached.Close)
	defer stop()

	if len(req.Stdin) > 0 {
		if _, err := attached.Conn.Write(req.Stdin); err != nil {
			return nil, err
		}
	}
	if err := attached.CloseWrite(); err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attached.Reader); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	exitCode, err := d.waitExec(ctx, created.ID)
	if err != nil {
		return nil, err
	}

	return &ExecOutput{ExitCode: exitCode, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
}

func (d *dockerClient) waitExec(ctx context.Context, execID string) (int, error) {
	for {
		inspect, err := d.cli.ContainerExecInspect(ctx, execID)
		if err != nil {
			return -1, err
		}
		if !inspect.Running {
			return inspect.ExitCode, nil
		}

		select {
		case <-ctx.Done():
			return -1, ctx.Err()
		case <-time.After(execPollInterval):
		}
	}
}

func (d *dockerClient) ContainerKill(ctx context.Context, containerID, signal string) error {
	return d.cli.ContainerKill(ctx, containerID, signal)
}

func (d *dockerClient) ContainerRemove(ctx context.Context, containerID string) error {
	return d.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true})
}
