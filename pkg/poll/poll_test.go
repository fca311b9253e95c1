package poll_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/juju/clock"
	. "github.com/npclaudiu/devenv/pkg/poll"
	"github.com/stretchr/testify/require"
)

// fakeClock fires immediately and records every requested wait.
type fakeClock struct {
	waits []time.Duration
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.waits = append(c.waits, d)

	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

var _ Clock = clock.WallClock

func TestPoller_ReadyOnFirstAttempt(t *testing.T) {
	clk := new(fakeClock)
	beat := new(bytes.Buffer)

	res, err := New(clk, beat, nil).Until(t.Context(), "ceph", Policy{Interval: 5 * time.Second, MaxAttempts: 60},
		func(context.Context) (bool, error) { return true, nil },
	)
	require.NoError(t, err)
	require.Equal(t, 1, res.Attempts)
	require.Equal(t, []time.Duration{5 * time.Second}, clk.waits)
	require.Empty(t, beat.String())
}

func TestPoller_BoundedExhaustion(t *testing.T) {
	clk := new(fakeClock)
	beat := new(bytes.Buffer)
	probes := 0

	res, err := New(clk, beat, nil).Until(t.Context(), "ceph health", Policy{Interval: time.Second, MaxAttempts: 3},
		func(context.Context) (bool, error) {
			probes++
			return false, nil
		},
	)
	require.ErrorIs(t, err, ErrTimeout)
	require.ErrorContains(t, err, "ceph health: not ready after 3 attempts")
	require.Equal(t, 3, probes)
	require.Equal(t, 3, res.Attempts)
	require.Len(t, clk.waits, 3)
	require.Equal(t, "...", beat.String())
}

func TestPoller_UnboundedKeepsGoing(t *testing.T) {
	clk := new(fakeClock)
	beat := new(bytes.Buffer)
	probes := 0

	res, err := New(clk, beat, nil).Until(t.Context(), "gateway", Policy{Interval: 2 * time.Second},
		func(context.Context) (bool, error) {
			probes++
			return probes == 250, nil
		},
	)
	require.NoError(t, err)
	require.Equal(t, 250, res.Attempts)
	require.Equal(t, 249, beat.Len())

	for _, w := range clk.waits {
		require.Equal(t, 2*time.Second, w)
	}
}

func TestPoller_ProbeErrorsAreNotReady(t *testing.T) {
	probes := 0

	res, err := New(new(fakeClock), io.Discard, nil).Until(t.Context(), "container", Policy{Interval: time.Second},
		func(context.Context) (bool, error) {
			probes++
			if probes < 3 {
				return false, errors.New("daemon unavailable")
			}

			return true, nil
		},
	)
	require.NoError(t, err)
	require.Equal(t, 3, res.Attempts)
}

func TestPoller_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	probes := 0

	_, err := New(new(fakeClock), io.Discard, nil).Until(ctx, "ceph", Policy{Interval: time.Second},
		func(context.Context) (bool, error) {
			probes++
			if probes == 2 {
				cancel()
			}

			return false, nil
		},
	)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, ErrTimeout)
	require.Equal(t, 2, probes)
}

func TestPoller_WallClock(t *testing.T) {
	res, err := New(clock.WallClock, io.Discard, nil).Until(t.Context(), "fast", Policy{Interval: time.Millisecond, MaxAttempts: 2},
		func(context.Context) (bool, error) { return true, nil },
	)
	require.NoError(t, err)
	require.Equal(t, 1, res.Attempts)
}
