package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

// ExitInterrupted is the exit code used when a command stops because the
// process received SIGINT or SIGTERM.
const ExitInterrupted = 130

type (
	Params struct {
		fx.In

		Args       []string
		Commands   []*cli.Command `group:"commands"`
		Ctx        context.Context
		Lifecycle  fx.Lifecycle
		Shutdowner fx.Shutdowner
		Status     *Status
		Version    *Version
		Workspace  *Workspace
	}

	// Status records how the command line finished. fx stops the application
	// with exit code 0 when it receives a signal itself, so main waits on
	// Done and exits with Code instead.
	Status struct {
		done chan struct{}
		code int
	}

	Version struct {
		Version   string
		Commit    string
		Timestamp string
	}
)

// Run registers the devenv CLI with the fx lifecycle. Once the application
// starts, the command line in Args is executed and the application shuts down
// with exit code 0 on success, ExitInterrupted when Ctx was cancelled, or 1
// for any other error.
//
// The command runs on its own goroutine: `up` polls for minutes, far longer
// than fx allows a start hook to block.
//
// Global Flags:
//   - --root, -r: Repository root (env DEVENV_ROOT, defaults to current directory)
//
// Example usage:
//
//	var status *cmd.Status
//	app := fx.New(
//		fx.Supply(args, level, version),
//		fx.Provide(
//			func() context.Context { return ctx },
//			func() poll.Clock { return clock.WallClock },
//		),
//		fx.Populate(&status),
//		docker.Module,
//		cmd.Module,
//	)
func Run(p Params) {
	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Root().Writer, "Version:", p.Version.Version)
		fmt.Fprintln(cmd.Root().Writer, "Commit:", p.Version.Commit)
		fmt.Fprintln(cmd.Root().Writer, "Date:", p.Version.Timestamp)
	}

	app := NewApp(p.Version, p.Workspace, p.Commands...)

	p.Lifecycle.Append(fx.StartHook(func() {
		go func() {
			code := exitCode(p.Ctx, app.Run(p.Ctx, p.Args))
			p.Status.finish(code)

			_ = p.Shutdowner.Shutdown(fx.ExitCode(code))
		}()
	}))
}

func exitCode(ctx context.Context, err error) int {
	switch {
	case err == nil && ctx.Err() == nil:
		return 0
	case ctx.Err() != nil && (err == nil || errors.Is(err, ctx.Err())):
		slog.Warn("Interrupted")
		return ExitInterrupted
	default:
		slog.Error("Error running command", "err", err)
		return 1
	}
}

func newStatus() *Status {
	return &Status{done: make(chan struct{})}
}

// Done is closed once the command line has finished.
func (s *Status) Done() <-chan struct{} {
	return s.done
}

// Code returns the exit code of the finished command line. It is only
// meaningful after Done is closed.
func (s *Status) Code() int {
	return s.code
}

func (s *Status) finish(code int) {
	s.code = code
	close(s.done)
}

// NewApp builds the root command.
func NewApp(version *Version, w *Workspace, commands ...*cli.Command) *cli.Command {
	return &cli.Command{
		Name:  "devenv",
		Usage: "Manage the Docker-based development environment",
		Description: `devenv starts and stops the local development stack (Postgres and a
single-node MicroCeph cluster), provisions S3 credentials on the Ceph object
gateway, and wraps the metastore's migration and code generation tools.`,
		Version:   version.Version,
		Writer:    w.out,
		ErrWriter: w.err,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "root",
				Aliases:     []string{"r"},
				Usage:       "the repository root",
				Sources:     cli.EnvVars("DEVENV_ROOT"),
				Value:       ".",
				DefaultText: "Current directory",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, w.bind(cmd.String("root"))
		},
		Commands: commands,
	}
}
