package cmd

import (
	"context"

	"github.com/npclaudiu/devenv/pkg/objectstore"
	"github.com/urfave/cli/v3"
)

func objectStore(w *Workspace) *cli.Command {
	return &cli.Command{
		Name:  "objectstore",
		Usage: "Manage object store",
		Commands: []*cli.Command{
			objectStoreCredentials(w),
			objectStoreBucket(w),
		},
	}
}

// objectStoreCredentials provisions the gateway user and writes its keys to
// config.yaml.
//
// Example usage:
//
//	devenv objectstore credentials --user hercules
//	devenv objectstore credentials --reset --bucket artifacts
func objectStoreCredentials(w *Workspace) *cli.Command {
	return &cli.Command{
		Name:  "credentials",
		Usage: "Generate/Refresh S3 credentials",
		Description: `Wait for the MicroCeph container, cluster health and the object gateway,
then create the user (or look it up if it already exists) and store its key
pair in config.yaml. The file is created from config.example.yaml when
missing.

By default only object_store.access_key and object_store.secret_key are
updated. With --reset the whole object_store section is rewritten with
default endpoint, bucket and region unless overridden.`,
		Flags: []cli.Flag{
			userFlag(),
			&cli.BoolFlag{
				Name:  "reset",
				Usage: "rewrite the whole object_store section",
			},
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "endpoint written with --reset",
			},
			&cli.StringFlag{
				Name:  "bucket",
				Usage: "bucket written with --reset",
			},
			&cli.StringFlag{
				Name:  "region",
				Usage: "region written with --reset",
			},
			localToolsFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := objectstore.ProvisionOptions{
				User:     cmd.String("user"),
				Strategy: objectstore.Merge,
			}

			if cmd.Bool("reset") {
				opts.Strategy = objectstore.Replace
				opts.Endpoint = cmd.String("endpoint")
				opts.Bucket = cmd.String("bucket")
				opts.Region = cmd.String("region")
			}

			_, err := w.provisioner(cmd.Bool("local-tools")).Provision(ctx, opts)
			return err
		},
	}
}

// objectStoreBucket creates the configured bucket unless it already exists.
func objectStoreBucket(w *Workspace) *cli.Command {
	return &cli.Command{
		Name:  "bucket",
		Usage: "Ensure the configured bucket exists",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			doc, err := w.store().Load()
			if err != nil {
				return err
			}

			cfg, err := objectstore.LoadConfig(doc)
			if err != nil {
				return err
			}

			client, err := objectstore.NewS3Client(ctx, cfg)
			if err != nil {
				return err
			}

			_, _ = progress.Fprintf(w.out, "Ensuring bucket %s", cfg.Bucket)
			err = objectstore.EnsureBucket(ctx, client, w.poller(), cfg.Bucket, nil)
			_, _ = w.out.Write([]byte("\n"))
			if err != nil {
				return err
			}

			_, _ = success.Fprintf(w.out, "Bucket %s is ready at %s\n", cfg.Bucket, cfg.Endpoint)
			return nil
		},
	}
}
