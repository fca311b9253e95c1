package executor_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npclaudiu/devenv/pkg/executor"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeContainers struct {
	container string
	argv      []string
	env       []string
	stdout    string
	stderr    string
	code      int
	err       error
}

func (f *fakeContainers) Exec(ctx context.Context, container string, argv, env []string, stdout, stderr io.Writer) (int, error) {
	f.container = container
	f.argv = argv
	f.env = env

	_, _ = io.WriteString(stdout, f.stdout)
	_, _ = io.WriteString(stderr, f.stderr)
	return f.code, f.err
}

// skipIfNoShell skips the test if /bin/sh is not available
func skipIfNoShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecutor_RunOnHost(t *testing.T) {
	skipIfNoShell(t)

	ctx := context.Background()
	e := executor.New(executor.Config{})

	t.Run("captures output", func(t *testing.T) {
		res, err := e.Run(ctx, "sh", []string{"-c", "echo out; echo err >&2"}, executor.Options{})
		require.NoError(t, err)
		require.True(t, res.Success())
		require.Equal(t, "out\n", res.Stdout)
		require.Equal(t, "err\n", res.Stderr)
	})

	t.Run("non-zero exit is a result", func(t *testing.T) {
		res, err := e.Run(ctx, "sh", []string{"-c", "echo nope >&2; exit 3"}, executor.Options{})
		require.NoError(t, err)
		require.False(t, res.Success())
		require.Equal(t, 3, res.ExitCode)
		require.Equal(t, "nope\n", res.Stderr)
	})

	t.Run("non-zero exit with check", func(t *testing.T) {
		res, err := e.Run(ctx, "sh", []string{"-c", "echo boom >&2; exit 2"}, executor.Options{Check: true})
		require.Error(t, err)
		require.NotNil(t, res)

		var failed *executor.CommandFailedError
		require.True(t, errors.As(err, &failed))
		require.Equal(t, 2, failed.ExitCode)
		require.Equal(t, "boom\n", failed.Stderr)
		require.Contains(t, failed.Command, "sh -c")
		require.Contains(t, err.Error(), "exit code 2")
	})

	t.Run("missing binary is a result", func(t *testing.T) {
		res, err := e.Run(ctx, "devenv-definitely-missing", nil, executor.Options{})
		require.NoError(t, err)
		require.Equal(t, executor.SpawnFailed, res.ExitCode)
		require.Contains(t, res.Stderr, "executable not found")
	})

	t.Run("missing binary with check", func(t *testing.T) {
		res, err := e.Run(ctx, "devenv-definitely-missing", nil, executor.Options{Check: true})
		require.Error(t, err)
		require.Nil(t, res)
		require.Contains(t, err.Error(), "failed to run command")
	})

	t.Run("per call environment", func(t *testing.T) {
		res, err := e.Run(ctx, "sh", []string{"-c", "printf %s \"$DATABASE_URL\""}, executor.Options{
			Env: map[string]string{"DATABASE_URL": "postgres://x"},
		})
		require.NoError(t, err)
		require.Equal(t, "postgres://x", res.Stdout)
		require.Empty(t, os.Getenv("DATABASE_URL"))
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := e.Run(cctx, "sh", []string{"-c", "sleep 5"}, executor.Options{})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestExecutor_Config(t *testing.T) {
	skipIfNoShell(t)

	ctx := context.Background()
	dir := t.TempDir()
	bin := filepath.Join(dir, "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "devenv-tool"), []byte("#!/bin/sh\necho from-prefix \"$@\"\n"), 0o755))

	var stdout, stderr bytes.Buffer
	e := executor.New(executor.Config{
		Dir:        dir,
		PathPrefix: []string{bin},
		Env:        map[string]string{"DEVENV_TEST": "yes"},
		Stdout:     &stdout,
		Stderr:     &stderr,
	})

	t.Run("prefix lookup", func(t *testing.T) {
		res, err := e.Run(ctx, "devenv-tool", []string{"a"}, executor.Options{Check: true})
		require.NoError(t, err)
		require.Equal(t, "from-prefix a\n", res.Stdout)
	})

	t.Run("prefix on child PATH", func(t *testing.T) {
		res, err := e.Run(ctx, "sh", []string{"-c", "devenv-tool b"}, executor.Options{Check: true})
		require.NoError(t, err)
		require.Equal(t, "from-prefix b\n", res.Stdout)
	})

	t.Run("working directory and env", func(t *testing.T) {
		res, err := e.Run(ctx, "sh", []string{"-c", "pwd; echo $DEVENV_TEST"}, executor.Options{Check: true})
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(res.Stdout), "\n")
		require.Len(t, lines, 2)

		want, err := filepath.EvalSymlinks(dir)
		require.NoError(t, err)
		got, err := filepath.EvalSymlinks(lines[0])
		require.NoError(t, err)
		require.Equal(t, want, got)
		require.Equal(t, "yes", lines[1])
	})

	t.Run("stream", func(t *testing.T) {
		stdout.Reset()
		stderr.Reset()

		res, err := e.Run(ctx, "sh", []string{"-c", "echo visible; echo warn >&2"}, executor.Options{Stream: true})
		require.NoError(t, err)
		require.Equal(t, "visible\n", res.Stdout)
		require.Equal(t, "visible\n", stdout.String())
		require.Equal(t, "warn\n", stderr.String())
	})

	t.Run("quiet by default", func(t *testing.T) {
		stdout.Reset()

		_, err := e.Run(ctx, "sh", []string{"-c", "echo hidden"}, executor.Options{})
		require.NoError(t, err)
		require.Empty(t, stdout.String())
	})
}

func TestExecutor_RunInContainer(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		containers := &fakeContainers{stdout: "health: HEALTH_OK\n"}
		e := executor.New(executor.Config{Containers: containers})

		res, err := e.Run(ctx, "/snap/bin/microceph.ceph", []string{"-s"}, executor.Options{
			Container: "microceph",
			Env:       map[string]string{"B": "2", "A": "1"},
		})
		require.NoError(t, err)
		require.True(t, res.Success())
		require.Equal(t, "health: HEALTH_OK\n", res.Stdout)
		require.Equal(t, "microceph", containers.container)
		require.Equal(t, []string{"/snap/bin/microceph.ceph", "-s"}, containers.argv)
		require.Equal(t, []string{"A=1", "B=2"}, containers.env)
	})

	t.Run("exit code", func(t *testing.T) {
		containers := &fakeContainers{stderr: "user exists\n", code: 17}
		e := executor.New(executor.Config{Containers: containers})

		res, err := e.Run(ctx, "radosgw-admin", []string{"user", "create"}, executor.Options{Container: "microceph"})
		require.NoError(t, err)
		require.Equal(t, 17, res.ExitCode)

		_, err = e.Run(ctx, "radosgw-admin", []string{"user", "create"}, executor.Options{Container: "microceph", Check: true})
		var failed *executor.CommandFailedError
		require.True(t, errors.As(err, &failed))
		require.Equal(t, 17, failed.ExitCode)
		require.Equal(t, "user exists\n", failed.Stderr)
	})

	t.Run("exec failure", func(t *testing.T) {
		containers := &fakeContainers{err: errors.New("no such container")}
		e := executor.New(executor.Config{Containers: containers})

		res, err := e.Run(ctx, "ceph", []string{"-s"}, executor.Options{Container: "microceph"})
		require.NoError(t, err)
		require.Equal(t, executor.SpawnFailed, res.ExitCode)
		require.Contains(t, res.Stderr, "no such container")

		_, err = e.Run(ctx, "ceph", []string{"-s"}, executor.Options{Container: "microceph", Check: true})
		require.Error(t, err)
		require.Contains(t, err.Error(), "no such container")
	})

	t.Run("no runtime", func(t *testing.T) {
		e := executor.New(executor.Config{})

		_, err := e.Run(ctx, "ceph", []string{"-s"}, executor.Options{Container: "microceph", Check: true})
		require.Error(t, err)
		require.Contains(t, err.Error(), "no container runtime configured")
	})
}
