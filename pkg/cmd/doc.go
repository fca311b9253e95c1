// Package cmd provides the CLI commands for devenv.
//
// Commands are plain functions returning a *cli.Command (urfave/cli/v3) and
// are collected into the root command through an fx value group. Everything a
// command needs beyond its flags comes from the Workspace, which is bound to
// the repository selected with --root before any command action runs.
//
// # Available Commands
//
//   - up: Start the compose stack, wait for MicroCeph and provision credentials
//   - down: Stop the compose stack (and remove volumes unless --volumes=false)
//   - status: Show compose status and whether the MicroCeph container runs
//   - init: Scaffold devenv/, config.example.yaml, sqlc.yaml and the metastore
//   - config get|set: Read or write config.yaml by attribute path
//   - objectstore credentials: Create or look up the gateway user, store its keys
//   - objectstore bucket: Create the configured bucket if it is missing
//   - metastore get-dsn|migrate|generate|ping: Postgres helpers
//
// # Global Options
//
//   - --root, -r: Repository root (env DEVENV_ROOT, defaults to current directory)
//   - --help, -h: Display command help
//   - --version: Display version information
//
// # Example Usage
//
//	devenv up                                     # Start everything
//	devenv up --verbose --build=false             # Stream compose output, skip image builds
//	devenv objectstore credentials --reset        # Rewrite the object_store section
//	devenv config set meta_store.port 5433        # Edit config.yaml in place
//	devenv metastore migrate                      # Apply migrations, patch schema.sql
//
// Host tools (docker, dbmate, sqlc) are looked up in devenv/bin before PATH, so
// a repository can pin its own versions.
package cmd
