package docker

import (
	"context"

	"github.com/npclaudiu/devenv/pkg/executor"
	"github.com/pkg/errors"
)

type (
	// Runner is the subset of *executor.Executor used to drive the compose CLI.
	Runner interface {
		Run(ctx context.Context, name string, args []string, opts executor.Options) (*executor.Result, error)
	}

	// Compose drives `docker compose` for a single compose file.
	Compose struct {
		file   string
		runner Runner
	}
)

// NewCompose returns a Compose bound to the given compose file.
//
// Example:
//
//	compose := docker.NewCompose("devenv/docker-compose.yml", exec)
//	if err := compose.Up(ctx, docker.UpOptions{Build: true}); err != nil {
//		log.Fatal(err)
//	}
func NewCompose(file string, runner Runner) *Compose {
	return &Compose{file: file, runner: runner}
}

// UpOptions control `docker compose up`.
type UpOptions struct {
	// Build rebuilds images before starting containers.
	Build bool

	// Stream copies compose output to the terminal.
	Stream bool
}

// Up starts the stack in the background.
func (c *Compose) Up(ctx context.Context, opts UpOptions) error {
	args := []string{"up", "-d"}
	if opts.Build {
		args = append(args, "--build")
	}

	return c.run(ctx, args, opts.Stream)
}

// Down stops the stack, removing named volumes when volumes is set.
func (c *Compose) Down(ctx context.Context, volumes bool) error {
	args := []string{"down"}
	if volumes {
		args = append(args, "-v")
	}

	return c.run(ctx, args, true)
}

// Ps prints the state of the stack's services.
func (c *Compose) Ps(ctx context.Context) error {
	return c.run(ctx, []string{"ps"}, true)
}

func (c *Compose) run(ctx context.Context, args []string, stream bool) error {
	argv := append([]string{"compose", "-f", c.file}, args...)

	if _, err := c.runner.Run(ctx, "docker", argv, executor.Options{Check: true, Stream: stream}); err != nil {
		return errors.Wrapf(err, "docker compose %s failed", args[0])
	}

	return nil
}
