package cmd

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/npclaudiu/devenv/pkg/config"
	"github.com/npclaudiu/devenv/pkg/docker"
	"github.com/npclaudiu/devenv/pkg/executor"
	"github.com/npclaudiu/devenv/pkg/metastore"
	"github.com/npclaudiu/devenv/pkg/objectstore"
	"github.com/npclaudiu/devenv/pkg/poll"
	"github.com/npclaudiu/devenv/pkg/project"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

var (
	progress = color.New(color.FgCyan)
	success  = color.New(color.FgGreen)
	failure  = color.New(color.FgRed)
	notice   = color.New(color.FgYellow)
)

type (
	// IO overrides the writers commands print to. Defaults to os.Stdout and
	// os.Stderr.
	IO struct {
		Out io.Writer
		Err io.Writer
	}

	// Workspace gives commands access to the project selected with --root and
	// builds the collaborators they need. The project is only known once flags
	// have been parsed, so it is bound by the root command's Before hook.
	Workspace struct {
		docker  docker.DockerClient
		clock   poll.Clock
		level   *slog.LevelVar
		out     io.Writer
		err     io.Writer
		project *project.Project
	}

	workspaceParams struct {
		fx.In

		Docker docker.DockerClient
		Clock  poll.Clock
		Level  *slog.LevelVar
		IO     *IO `optional:"true"`
	}
)

func newWorkspace(p workspaceParams) *Workspace {
	w := &Workspace{
		docker: p.Docker,
		clock:  p.Clock,
		level:  p.Level,
		out:    os.Stdout,
		err:    os.Stderr,
	}

	if p.IO != nil {
		if p.IO.Out != nil {
			w.out = p.IO.Out
		}
		if p.IO.Err != nil {
			w.err = p.IO.Err
		}
	}

	if w.level == nil {
		w.level = new(slog.LevelVar)
	}

	return w
}

// bind selects the repository root.
func (w *Workspace) bind(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve root: %s", root)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return errors.Wrapf(err, "failed to stat root: %s", abs)
	}

	if !info.IsDir() {
		return errors.Errorf("root is not a directory: %s", abs)
	}

	w.project = project.New(abs)
	return nil
}

// Project returns the project selected with --root.
func (w *Workspace) Project() *project.Project {
	return w.project
}

func (w *Workspace) verbose() {
	w.level.Set(slog.LevelDebug)
}

func (w *Workspace) engine() *docker.Engine {
	return docker.NewEngine(w.docker)
}

func (w *Workspace) executor() *executor.Executor {
	return executor.New(executor.Config{
		Dir:        w.project.Root(),
		PathPrefix: []string{w.project.BinDir()},
		Stdout:     w.out,
		Stderr:     w.err,
		Containers: w.engine(),
	})
}

func (w *Workspace) compose() *docker.Compose {
	return docker.NewCompose(w.project.ComposePath(), w.executor())
}

func (w *Workspace) poller() *poll.Poller {
	return poll.New(w.clock, w.out, slog.Default())
}

func (w *Workspace) store() *config.Store {
	return w.project.ConfigStore()
}

func (w *Workspace) provisioner(localTools bool) *objectstore.Provisioner {
	cfg := objectstore.ProvisionerConfig{
		Runner:     w.executor(),
		Containers: w.engine(),
		Poller:     w.poller(),
		Store:      w.store(),
		Out:        w.out,
	}

	if localTools {
		tools := objectstore.LocalTools()
		cfg.Tools = &tools
	}

	return objectstore.NewProvisioner(cfg)
}

func (w *Workspace) metastore() *metastore.Manager {
	return metastore.NewManager(metastore.ManagerConfig{
		Runner:        w.executor(),
		MigrationsDir: w.project.MigrationsDir(),
		SchemaFile:    w.project.SchemaPath(),
		SqlcConfig:    w.project.SqlcConfigPath(),
	})
}

// metastoreConfig loads the meta_store section of config.yaml.
func (w *Workspace) metastoreConfig() (metastore.Config, error) {
	doc, err := w.store().Load()
	if err != nil {
		return metastore.Config{}, err
	}

	return metastore.LoadConfig(doc)
}
