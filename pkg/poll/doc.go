// Package poll waits for external dependencies to become ready.
//
// A Poller repeatedly runs a Probe on a constant interval, driven by a
// cenkalti/backoff policy and a juju/clock time source, writing a progress dot
// after each unsuccessful attempt. Polls are either bounded (MaxAttempts > 0),
// failing with ErrTimeout once exhausted, or unbounded, running until the
// probe succeeds or the context is cancelled.
package poll
