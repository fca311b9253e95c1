package cmd

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	cancelled, cancel := context.WithCancel(t.Context())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want int
	}{
		{name: "success", ctx: t.Context(), want: 0},
		{name: "failure", ctx: t.Context(), err: errors.New("boom"), want: 1},
		{name: "interrupted", ctx: cancelled, err: errors.Wrap(context.Canceled, "cluster health: polling interrupted"), want: ExitInterrupted},
		{name: "interrupted after success", ctx: cancelled, want: ExitInterrupted},
		{name: "unrelated failure while interrupted", ctx: cancelled, err: errors.New("boom"), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, exitCode(tt.ctx, tt.err))
		})
	}
}

func TestStatus(t *testing.T) {
	s := newStatus()

	select {
	case <-s.Done():
		t.Fatal("status finished before the command ran")
	default:
	}

	s.finish(ExitInterrupted)

	<-s.Done()
	require.Equal(t, ExitInterrupted, s.Code())
}
