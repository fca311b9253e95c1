package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npclaudiu/devenv/pkg/project"
	"github.com/stretchr/testify/require"
)

// ProjectFixture is a scaffolded repository in a temporary directory.
type ProjectFixture struct {
	*project.Project
	t *testing.T
}

// TestProject creates an isolated temp directory and scaffolds the development
// environment in it.
func TestProject(t *testing.T) *ProjectFixture {
	t.Helper()

	proj := project.New(t.TempDir())
	_, err := proj.Initialize()
	require.NoError(t, err, "Failed to initialize test project")

	return &ProjectFixture{Project: proj, t: t}
}

// SkipIfNoShell skips tests that install fake tools as shell scripts.
func SkipIfNoShell(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

// WithConfig writes config.yaml.
func (p *ProjectFixture) WithConfig(content string) *ProjectFixture {
	p.t.Helper()

	require.NoError(p.t, os.WriteFile(p.ConfigPath(), []byte(content), 0o600))
	return p
}

// WithExampleConfig copies config.example.yaml to config.yaml.
func (p *ProjectFixture) WithExampleConfig() *ProjectFixture {
	p.t.Helper()

	data, err := os.ReadFile(p.ExampleConfigPath())
	require.NoError(p.t, err)

	return p.WithConfig(string(data))
}

// Config returns the current contents of config.yaml.
func (p *ProjectFixture) Config() string {
	p.t.Helper()

	data, err := os.ReadFile(p.ConfigPath())
	require.NoError(p.t, err)

	return string(data)
}

// WithTool installs an executable script in devenv/bin that runs body.
func (p *ProjectFixture) WithTool(name, body string) *ProjectFixture {
	p.t.Helper()

	require.NoError(p.t, os.MkdirAll(p.BinDir(), 0o755))

	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(p.t, os.WriteFile(filepath.Join(p.BinDir(), name), []byte(script), 0o755))

	return p
}

// WithRecordingTool installs a tool that appends its arguments, one
// invocation per line, to a log read back with Calls, then runs body.
func (p *ProjectFixture) WithRecordingTool(name, body string) *ProjectFixture {
	p.t.Helper()

	return p.WithTool(name, fmt.Sprintf("printf '%%s\\n' \"$*\" >> %q\n%s", p.callLog(name), body))
}

// Calls returns the argument lists a recording tool was invoked with.
func (p *ProjectFixture) Calls(name string) []string {
	p.t.Helper()

	data, err := os.ReadFile(p.callLog(name))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(p.t, err)

	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func (p *ProjectFixture) callLog(name string) string {
	return filepath.Join(p.Root(), "."+name+".calls")
}
