package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// initCmd scaffolds the files the development environment needs. Existing
// files are left untouched.
func initCmd(w *Workspace) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Scaffold the development environment",
		Description: `Create the compose stack under devenv/, config.example.yaml, sqlc.yaml and
the metastore directories. Only missing files and directories are created.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			created, err := w.Project().Initialize()
			if err != nil {
				return err
			}

			if len(created) == 0 {
				_, _ = notice.Fprintln(w.out, "Nothing to do, the development environment is already scaffolded")
				return nil
			}

			for _, path := range created {
				fmt.Fprintln(w.out, "  created", path)
			}

			_, _ = success.Fprintf(w.out, "Development environment scaffolded in %s\n", w.Project().Root())
			return nil
		},
	}
}
