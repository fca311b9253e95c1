package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/npclaudiu/devenv/pkg/cmd"
	"github.com/npclaudiu/devenv/pkg/docker"
	"github.com/npclaudiu/devenv/pkg/poll"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// commandTimeout bounds a single CLI invocation in tests.
const commandTimeout = 30 * time.Second

type (
	// Result is the outcome of a CLI invocation.
	Result struct {
		Stdout   string
		Stderr   string
		ExitCode int
	}

	// InstantClock is a poll.Clock whose timers fire immediately.
	InstantClock struct{}
)

// After implements poll.Clock.
func (InstantClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

// RunCLI runs the devenv CLI with args (without the program name) through the
// same fx graph main uses, with the given Docker client and a clock that never
// waits.
func RunCLI(t *testing.T, client docker.DockerClient, args ...string) Result {
	t.Helper()

	return RunCLIContext(t, t.Context(), client, args...)
}

// RunCLIContext is RunCLI with the context the commands observe, which stands
// in for the signal context main derives.
func RunCLIContext(t *testing.T, ctx context.Context, client docker.DockerClient, args ...string) Result {
	t.Helper()

	color.NoColor = true

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	argv := append([]string{"devenv"}, args...)

	var status *cmd.Status
	app := fxtest.New(t,
		fx.Supply(
			argv,
			new(slog.LevelVar),
			&cmd.Version{Version: "v0.0.0-test", Commit: "abc123", Timestamp: "2025-01-01T00:00:00Z"},
			&cmd.IO{Out: stdout, Err: stderr},
		),
		fx.Provide(
			func() context.Context { return ctx },
			func() docker.DockerClient { return client },
			func() poll.Clock { return InstantClock{} },
		),
		fx.Populate(&status),
		cmd.Module,
	)

	done := app.Wait()
	app.RequireStart()

	var sig fx.ShutdownSignal
	select {
	case sig = <-done:
	case <-time.After(commandTimeout):
		t.Fatalf("devenv %v did not finish within %s", args, commandTimeout)
	}

	<-status.Done()
	app.RequireStop()

	if sig.ExitCode != status.Code() {
		t.Fatalf("shutdown exit code %d differs from command status %d", sig.ExitCode, status.Code())
	}

	return Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: status.Code()}
}
