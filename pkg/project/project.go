package project

import (
	_ "embed"
	"os"
	"path/filepath"
	"sort"
	"testing/fstest"

	"github.com/npclaudiu/devenv/pkg/config"
	"github.com/npclaudiu/devenv/pkg/consts"
	"github.com/pkg/errors"
)

var (
	//go:embed embed/docker-compose.yml
	defaultCompose []byte

	//go:embed embed/microceph/Dockerfile
	defaultMicroCephDockerfile []byte

	//go:embed embed/microceph/bootstrap.sh
	defaultMicroCephBootstrap []byte

	//go:embed embed/microceph/microceph-bootstrap.service
	defaultMicroCephUnit []byte

	//go:embed embed/config.example.yaml
	defaultExampleConfig []byte

	//go:embed embed/sqlc.yaml
	defaultSqlc []byte

	image = fstest.MapFS{
		"devenv":                                       {Mode: os.ModeDir | consts.ModeDir},
		"devenv/bin":                                   {Mode: os.ModeDir | consts.ModeDir},
		"devenv/docker-compose.yml":                    {Data: defaultCompose, Mode: consts.ModeFile},
		"devenv/microceph":                             {Mode: os.ModeDir | consts.ModeDir},
		"devenv/microceph/Dockerfile":                  {Data: defaultMicroCephDockerfile, Mode: consts.ModeFile},
		"devenv/microceph/bootstrap.sh":                {Data: defaultMicroCephBootstrap, Mode: 0o755},
		"devenv/microceph/microceph-bootstrap.service": {Data: defaultMicroCephUnit, Mode: consts.ModeFile},
		"internal/metastore/pg/migrations":             {Mode: os.ModeDir | consts.ModeDir},
		"internal/metastore/pg/queries":                {Mode: os.ModeDir | consts.ModeDir},
		"config.example.yaml":                          {Data: defaultExampleConfig, Mode: consts.ModeFile},
		"sqlc.yaml":                                    {Data: defaultSqlc, Mode: consts.ModeFile},
	}
)

// Project describes the layout of a repository managed by devenv. All paths
// are derived from the root; nothing depends on the process working
// directory.
type Project struct {
	root string
}

// New creates a Project rooted at path.
//
// Example:
//
//	proj := project.New("/path/to/repo")
//
//	// Scaffold anything that is missing
//	created, err := proj.Initialize()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Println(proj.ComposePath()) // /path/to/repo/devenv/docker-compose.yml
func New(path string) *Project {
	return &Project{root: path}
}

// Root returns the repository root.
func (p *Project) Root() string { return p.root }

// ConfigPath returns the path of config.yaml.
func (p *Project) ConfigPath() string { return filepath.Join(p.root, consts.ConfigFile) }

// ExampleConfigPath returns the path of config.example.yaml.
func (p *Project) ExampleConfigPath() string { return filepath.Join(p.root, consts.ExampleConfigFile) }

// DevenvDir returns the directory holding the compose stack.
func (p *Project) DevenvDir() string { return filepath.Join(p.root, consts.DevenvDir) }

// ComposePath returns the compose file driving the stack.
func (p *Project) ComposePath() string { return filepath.Join(p.DevenvDir(), consts.ComposeFile) }

// BinDir returns the directory of project-local tools, searched before PATH.
func (p *Project) BinDir() string { return filepath.Join(p.DevenvDir(), consts.BinDir) }

// MetastoreDir returns the directory of the Postgres metastore package.
func (p *Project) MetastoreDir() string { return filepath.Join(p.root, consts.MetastoreDir) }

// MigrationsDir returns the dbmate migrations directory.
func (p *Project) MigrationsDir() string {
	return filepath.Join(p.MetastoreDir(), consts.MigrationsDir)
}

// SchemaPath returns the schema file dumped by dbmate.
func (p *Project) SchemaPath() string { return filepath.Join(p.MetastoreDir(), consts.SchemaFile) }

// SqlcConfigPath returns the sqlc configuration file.
func (p *Project) SqlcConfigPath() string { return filepath.Join(p.root, consts.SqlcConfigFile) }

// ConfigStore returns an accessor for config.yaml seeded from
// config.example.yaml.
func (p *Project) ConfigStore() *config.Store {
	return config.NewStore(p.ConfigPath(), p.ExampleConfigPath())
}

// Initialize scaffolds the development environment: the compose stack, the
// example configuration, sqlc's configuration and the metastore directories.
// It only creates what is missing and returns the paths it created, relative
// to the root and in lexical order.
func (p *Project) Initialize() ([]string, error) {
	if err := p.ensureDirectory(); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(image))
	for path := range image {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var created []string
	for _, path := range paths {
		entry := image[path]
		fullPath := filepath.Join(p.root, filepath.FromSlash(path))

		if _, err := os.Stat(fullPath); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return created, errors.Wrapf(err, "failed to stat %s", fullPath)
		}

		if entry.Mode.IsDir() {
			if err := os.MkdirAll(fullPath, entry.Mode.Perm()); err != nil {
				return created, errors.Wrapf(err, "failed to create directory %s", fullPath)
			}

			created = append(created, path)
			continue
		}

		parentDir := filepath.Dir(fullPath)
		if err := os.MkdirAll(parentDir, consts.ModeDir); err != nil {
			return created, errors.Wrapf(err, "failed to create parent directory %s", parentDir)
		}

		if err := os.WriteFile(fullPath, entry.Data, entry.Mode.Perm()); err != nil {
			return created, errors.Wrapf(err, "failed to write file %s", fullPath)
		}

		created = append(created, path)
	}

	return created, nil
}

func (p *Project) ensureDirectory() error {
	dir, err := os.Stat(p.root)
	if err != nil {
		return errors.Wrapf(err, "failed to stat dir: %s", p.root)
	}

	if !dir.IsDir() {
		return errors.Errorf("%s is not a directory", p.root)
	}

	return nil
}
