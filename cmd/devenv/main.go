package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/clock"
	"github.com/npclaudiu/devenv/pkg/cmd"
	"github.com/npclaudiu/devenv/pkg/docker"
	"github.com/npclaudiu/devenv/pkg/poll"
	"go.uber.org/fx"
)

// exitGrace bounds how long a cancelled command gets to unwind after a
// signal before the process exits anyway.
const exitGrace = 10 * time.Second

// NB: These are set by GoReleaser during a build.
var (
	version string
	commit  string
	date    string
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := new(slog.LevelVar)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var status *cmd.Status
	app := fx.New(
		fx.NopLogger,
		fx.Supply(
			os.Args,
			level,
			&cmd.Version{Version: version, Commit: commit, Timestamp: date},
		),
		fx.Provide(
			func() context.Context { return ctx },
			func() poll.Clock { return clock.WallClock },
		),
		fx.Populate(&status),
		docker.Module,
		cmd.Module,
	)

	startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()

	if err := app.Start(startCtx); err != nil {
		slog.Error("Failed to start", "err", err)
		return 1
	}

	<-app.Wait()

	// On a signal fx shuts down with code 0 before the command has seen the
	// cancellation, so the exit code always comes from the command.
	code := cmd.ExitInterrupted
	select {
	case <-status.Done():
		code = status.Code()
	case <-time.After(exitGrace):
		slog.Error("Command did not stop after interrupt")
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancelStop()

	if err := app.Stop(stopCtx); err != nil {
		slog.Error("Failed to stop", "err", err)
	}

	return code
}
