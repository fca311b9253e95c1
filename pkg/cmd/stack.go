package cmd

import (
	"context"
	"fmt"

	"github.com/npclaudiu/devenv/pkg/consts"
	"github.com/npclaudiu/devenv/pkg/docker"
	"github.com/npclaudiu/devenv/pkg/objectstore"
	"github.com/npclaudiu/devenv/pkg/poll"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

// up creates the up command, which starts the stack, waits for MicroCeph and
// provisions object store credentials.
//
// Example usage:
//
//	devenv up
//	devenv up --verbose --build=false
//	devenv up --user alice --local-tools
func up(w *Workspace) *cli.Command {
	return &cli.Command{
		Name:  "up",
		Usage: "Start the environment and configure MicroCeph",
		Description: `Start the compose stack in the background, wait for the MicroCeph cluster
to report HEALTH_OK, then create the object store user and write its
credentials to config.yaml.

The cluster gets a bounded amount of time to come up. If it is still not
healthy after that, the command fails without provisioning credentials.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "show compose output and debug logs",
			},
			userFlag(),
			&cli.BoolFlag{
				Name:  "build",
				Usage: "rebuild images before starting containers",
				Value: true,
			},
			localToolsFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			verbose := cmd.Bool("verbose")
			if verbose {
				w.verbose()
			}

			_, _ = progress.Fprintln(w.out, "Starting containers")
			if err := w.compose().Up(ctx, docker.UpOptions{Build: cmd.Bool("build"), Stream: verbose}); err != nil {
				return err
			}

			prov := w.provisioner(cmd.Bool("local-tools"))

			_, _ = progress.Fprint(w.out, "Waiting for MicroCeph to become healthy")
			policy := poll.Policy{Interval: consts.ClusterBootInterval, MaxAttempts: consts.ClusterBootAttempts}
			if err := prov.WaitForCluster(ctx, policy); err != nil {
				fmt.Fprintln(w.out)
				if errors.Is(err, poll.ErrTimeout) {
					_, _ = failure.Fprintf(w.err,
						"MicroCeph failed to become ready. Check logs: `docker logs %s`.\n", consts.DefaultContainer)
				}

				return err
			}
			fmt.Fprintln(w.out)

			_, err := prov.Provision(ctx, objectstore.ProvisionOptions{User: cmd.String("user")})
			return err
		},
	}
}

func down(w *Workspace) *cli.Command {
	return &cli.Command{
		Name:  "down",
		Usage: "Stop the environment and remove volumes",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "volumes",
				Usage: "remove named volumes (use --volumes=false to keep them)",
				Value: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return w.compose().Down(ctx, cmd.Bool("volumes"))
		},
	}
}

func status(w *Workspace) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show status of containers",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := w.compose().Ps(ctx); err != nil {
				return err
			}

			running, err := w.engine().IsRunning(ctx, consts.DefaultContainer)
			if err != nil {
				return err
			}

			if running {
				_, _ = success.Fprintf(w.out, "%s is running\n", consts.DefaultContainer)
			} else {
				_, _ = notice.Fprintf(w.out, "%s is not running\n", consts.DefaultContainer)
			}

			return nil
		},
	}
}

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "object store user to create or look up",
		Value:   consts.DefaultCephUser,
		Config: cli.StringConfig{
			TrimSpace: true,
		},
	}
}

func localToolsFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "local-tools",
		Usage: "run ceph, microceph and radosgw-admin from the host instead of the container",
	}
}
