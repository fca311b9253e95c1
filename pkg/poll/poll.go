package poll

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

// ErrTimeout is returned when a bounded poll runs out of attempts.
var ErrTimeout = errors.New("readiness check timed out")

type (
	// Clock is the time source used between attempts. It is satisfied by
	// clock.WallClock from github.com/juju/clock.
	Clock interface {
		After(time.Duration) <-chan time.Time
	}

	// Policy controls how often a probe runs and for how long.
	Policy struct {
		Interval time.Duration

		// MaxAttempts bounds the number of probes. Zero polls until the probe
		// succeeds or the context is cancelled.
		MaxAttempts int
	}

	// Probe reports whether a dependency is ready. An error is treated as
	// "not ready yet".
	Probe func(ctx context.Context) (bool, error)

	// Result describes a finished poll.
	Result struct {
		Attempts int
	}

	// Poller runs readiness probes at fixed intervals.
	Poller struct {
		clock     Clock
		heartbeat io.Writer
		logger    *slog.Logger
	}
)

// New creates a Poller. A dot is written to heartbeat after every attempt
// that did not succeed; pass io.Discard to poll quietly.
//
// Example:
//
//	p := poll.New(clock.WallClock, os.Stdout, slog.Default())
//	_, err := p.Until(ctx, "ceph health", poll.Policy{Interval: 5 * time.Second, MaxAttempts: 60}, probe)
//	if errors.Is(err, poll.ErrTimeout) {
//		log.Fatal("cluster did not become healthy")
//	}
func New(clock Clock, heartbeat io.Writer, logger *slog.Logger) *Poller {
	if heartbeat == nil {
		heartbeat = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Poller{clock: clock, heartbeat: heartbeat, logger: logger}
}

// Until waits one interval, runs the probe, and repeats until the probe
// reports ready, the attempts run out, or ctx is cancelled.
//
// A bounded poll makes exactly MaxAttempts probes before failing with
// ErrTimeout. Cancellation returns the context's error.
func (p *Poller) Until(ctx context.Context, name string, policy Policy, probe Probe) (Result, error) {
	var b backoff.BackOff = backoff.NewConstantBackOff(policy.Interval)
	if policy.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(policy.MaxAttempts))
	}
	b = backoff.WithContext(b, ctx)
	b.Reset()

	var res Result
	for {
		wait := b.NextBackOff()
		if wait == backoff.Stop {
			if err := ctx.Err(); err != nil {
				return res, errors.Wrapf(err, "%s: polling interrupted", name)
			}

			return res, errors.Wrapf(ErrTimeout, "%s: not ready after %d attempts", name, res.Attempts)
		}

		select {
		case <-ctx.Done():
			return res, errors.Wrapf(ctx.Err(), "%s: polling interrupted", name)
		case <-p.clock.After(wait):
		}

		res.Attempts++
		ready, err := probe(ctx)
		if err != nil {
			p.logger.Debug("probe failed", "check", name, "attempt", res.Attempts, "err", err)
		}

		if ready {
			p.logger.Debug("check ready", "check", name, "attempts", res.Attempts)
			return res, nil
		}

		_, _ = io.WriteString(p.heartbeat, ".")
	}
}
