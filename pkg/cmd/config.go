package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/npclaudiu/devenv/pkg/config"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func configCmd(w *Workspace) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Commands: []*cli.Command{
			configGet(w),
			configSet(w),
		},
	}
}

// configGet prints the value at an attribute path as JSON, or null when the
// path does not exist.
//
// Example usage:
//
//	devenv config get object_store.bucket      # "git-lfs"
//	devenv config get meta_store               # {"dbname":"git_server",...}
func configGet(w *Workspace) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get configuration value by attribute path",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := pathArg(cmd)
			if err != nil {
				return err
			}

			value, _, err := w.store().Get(path)
			if err != nil {
				return err
			}

			out, err := json.Marshal(jsonValue(value))
			if err != nil {
				return errors.Wrapf(err, "failed to render %s as JSON", path)
			}

			fmt.Fprintln(w.out, string(out))
			return nil
		},
	}
}

// configSet stores a value at an attribute path. The value is parsed as YAML,
// so `8080` is stored as a number and `"8080"` as a string.
//
// Example usage:
//
//	devenv config set meta_store.port 5433
//	devenv config set object_store.endpoint http://ceph:8000
func configSet(w *Workspace) *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set configuration value by attribute path",
		ArgsUsage: "<path> <value>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return errors.New("expected <path> and <value> arguments")
			}

			path := cmd.Args().Get(0)
			value, err := parseValue(cmd.Args().Get(1))
			if err != nil {
				return err
			}

			store := w.store()
			if _, err := config.EnsureFile(store.Path, store.Example); err != nil {
				return err
			}

			return store.Set(path, value)
		},
	}
}

// jsonValue rewrites mappings decoded with non-string keys (`{1: a}`) so
// they can be rendered as JSON objects.
func jsonValue(v any) any {
	switch v := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = jsonValue(val)
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = jsonValue(val)
		}

		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = jsonValue(val)
		}

		return out
	default:
		return v
	}
}

func pathArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", errors.New("expected a single <path> argument")
	}

	return cmd.Args().First(), nil
}

// parseValue reads a command-line value as a YAML node.
func parseValue(raw string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, errors.Wrapf(err, "invalid value: %s", raw)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: raw}, nil
	}

	return doc.Content[0], nil
}
