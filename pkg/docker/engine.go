package docker

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/pkg/errors"
)

var runningContainers = filters.Arg("status", "running")

type (
	// DockerClient defines the interface for Docker operations used by the Engine.
	// This interface is satisfied by *client.Client and allows for easy mocking in tests.
	DockerClient interface {
		ContainerList(context.Context, container.ListOptions) ([]container.Summary, error)
		ContainerExecCreate(context.Context, string, container.ExecOptions) (container.ExecCreateResponse, error)
		ContainerExecAttach(context.Context, string, container.ExecAttachOptions) (types.HijackedResponse, error)
		ContainerExecInspect(context.Context, string) (container.ExecInspect, error)
	}

	Engine struct {
		client DockerClient
	}

	Container struct {
		Names  []string
		Image  string
		State  string
		Status string
	}
)

// NewEngine creates a new Docker Engine instance for inspecting containers and
// running commands inside them. The Docker client should be initialized before
// passing it to this constructor.
//
// Example:
//
//	// Create Docker client
//	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer cli.Close()
//
//	// Create engine
//	engine := docker.NewEngine(cli)
//
//	running, err := engine.IsRunning(ctx, "microceph")
func NewEngine(cl DockerClient) *Engine {
	return &Engine{
		client: cl,
	}
}

// List returns running containers, optionally narrowed by name.
func (c *Engine) List(ctx context.Context, name string) ([]*Container, error) {
	args := filters.NewArgs(runningContainers)
	if name != "" {
		args.Add("name", name)
	}

	list, err := c.client.ContainerList(ctx, container.ListOptions{Filters: args})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list running containers")
	}

	res := make([]*Container, len(list))
	for i, c := range list {
		// Map slice of names to remove leading "/" prefix
		names := make([]string, len(c.Names))
		for j, name := range c.Names {
			names[j] = strings.TrimPrefix(name, "/")
		}

		res[i] = &Container{
			Names:  names,
			Image:  c.Image,
			State:  c.State,
			Status: c.Status,
		}
	}

	return res, nil
}

// IsRunning reports whether a running container carries exactly the given
// name. The daemon's name filter matches substrings, so the result is
// checked again here.
func (c *Engine) IsRunning(ctx context.Context, name string) (bool, error) {
	list, err := c.List(ctx, name)
	if err != nil {
		return false, err
	}

	for _, ctr := range list {
		if slices.Contains(ctr.Names, name) {
			return true, nil
		}
	}

	return false, nil
}

// Exec runs argv inside the named container and copies its output to stdout
// and stderr. It returns the command's exit code; the error is only set when
// the exec could not be created, attached, or inspected.
func (c *Engine) Exec(ctx context.Context, name string, argv, env []string, stdout, stderr io.Writer) (int, error) {
	created, err := c.client.ContainerExecCreate(ctx, name, container.ExecOptions{
		Cmd:          argv,
		Env:          env,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to create exec in container: %s", name)
	}

	attached, err := c.client.ContainerExecAttach(ctx, created.ID, container.ExecAttachOptions{})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to attach to exec in container: %s", name)
	}
	defer attached.Close()

	if _, err := stdcopy.StdCopy(stdout, stderr, attached.Reader); err != nil {
		return 0, errors.Wrapf(err, "failed to read exec output from container: %s", name)
	}

	inspect, err := c.client.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to inspect exec in container: %s", name)
	}

	return inspect.ExitCode, nil
}
