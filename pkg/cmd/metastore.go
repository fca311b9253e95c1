package cmd

import (
	"context"
	"fmt"

	"github.com/npclaudiu/devenv/pkg/metastore"
	"github.com/urfave/cli/v3"
)

func metaStore(w *Workspace) *cli.Command {
	return &cli.Command{
		Name:  "metastore",
		Usage: "Manage metadata store",
		Commands: []*cli.Command{
			{
				Name:  "get-dsn",
				Usage: "Get database connection string",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := w.metastoreConfig()
					if err != nil {
						return err
					}

					fmt.Fprintln(w.out, metastore.DSN(cfg))
					return nil
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Description: `Apply pending migrations with dbmate, then comment out the \restrict and
\unrestrict directives in the dumped schema file so sqlc can read it.`,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := w.metastoreConfig()
					if err != nil {
						return err
					}

					return w.metastore().Migrate(ctx, metastore.DSN(cfg))
				},
			},
			{
				Name:  "generate",
				Usage: "Generate query code with sqlc",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return w.metastore().Generate(ctx)
				},
			},
			{
				Name:  "ping",
				Usage: "Check that the database accepts connections",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := w.metastoreConfig()
					if err != nil {
						return err
					}

					if err := metastore.Ping(ctx, metastore.DSN(cfg)); err != nil {
						return err
					}

					_, _ = success.Fprintf(w.out, "Connected to %s:%d/%s\n", cfg.Host, cfg.Port, cfg.DBName)
					return nil
				},
			},
		},
	}
}
