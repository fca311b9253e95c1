package docker_test

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	. "github.com/npclaudiu/devenv/pkg/docker"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	ContainerListFunc        func(context.Context, container.ListOptions) ([]container.Summary, error)
	ContainerExecCreateFunc  func(context.Context, string, container.ExecOptions) (container.ExecCreateResponse, error)
	ContainerExecAttachFunc  func(context.Context, string, container.ExecAttachOptions) (types.HijackedResponse, error)
	ContainerExecInspectFunc func(context.Context, string) (container.ExecInspect, error)
}

func (m *mockClient) ContainerList(ctx context.Context, opts container.ListOptions) ([]container.Summary, error) {
	return m.ContainerListFunc(ctx, opts)
}

func (m *mockClient) ContainerExecCreate(ctx context.Context, name string, opts container.ExecOptions) (container.ExecCreateResponse, error) {
	return m.ContainerExecCreateFunc(ctx, name, opts)
}

func (m *mockClient) ContainerExecAttach(ctx context.Context, id string, opts container.ExecAttachOptions) (types.HijackedResponse, error) {
	return m.ContainerExecAttachFunc(ctx, id, opts)
}

func (m *mockClient) ContainerExecInspect(ctx context.Context, id string) (container.ExecInspect, error) {
	return m.ContainerExecInspectFunc(ctx, id)
}

// hijacked builds an attach response carrying multiplexed stdout and stderr
// streams, the way the daemon sends them for non-TTY execs.
func hijacked(t *testing.T, stdout, stderr string) types.HijackedResponse {
	t.Helper()

	buf := new(bytes.Buffer)
	if stdout != "" {
		_, err := stdcopy.NewStdWriter(buf, stdcopy.Stdout).Write([]byte(stdout))
		require.NoError(t, err)
	}
	if stderr != "" {
		_, err := stdcopy.NewStdWriter(buf, stdcopy.Stderr).Write([]byte(stderr))
		require.NoError(t, err)
	}

	conn, peer := net.Pipe()
	t.Cleanup(func() { _ = peer.Close() })

	return types.HijackedResponse{Conn: conn, Reader: bufio.NewReader(buf)}
}

func TestEngine_List(t *testing.T) {
	var got container.ListOptions
	client := &mockClient{
		ContainerListFunc: func(_ context.Context, opts container.ListOptions) ([]container.Summary, error) {
			got = opts
			return []container.Summary{
				{Names: []string{"/microceph"}, Image: "ubuntu/microceph", State: "running", Status: "Up 2 minutes"},
			}, nil
		},
	}

	list, err := NewEngine(client).List(t.Context(), "microceph")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, []string{"microceph"}, list[0].Names)
	require.Equal(t, "ubuntu/microceph", list[0].Image)

	require.Equal(t, []string{"running"}, got.Filters.Get("status"))
	require.Equal(t, []string{"microceph"}, got.Filters.Get("name"))
}

func TestEngine_IsRunning(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  bool
	}{
		{name: "exact match", names: []string{"/microceph"}, want: true},
		{name: "substring only", names: []string{"/microceph-proxy"}, want: false},
		{name: "none", names: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{
				ContainerListFunc: func(context.Context, container.ListOptions) ([]container.Summary, error) {
					if tt.names == nil {
						return nil, nil
					}

					return []container.Summary{{Names: tt.names}}, nil
				},
			}

			running, err := NewEngine(client).IsRunning(t.Context(), "microceph")
			require.NoError(t, err)
			require.Equal(t, tt.want, running)
		})
	}

	t.Run("list error", func(t *testing.T) {
		client := &mockClient{
			ContainerListFunc: func(context.Context, container.ListOptions) ([]container.Summary, error) {
				return nil, errors.New("daemon unavailable")
			},
		}

		_, err := NewEngine(client).IsRunning(t.Context(), "microceph")
		require.ErrorContains(t, err, "failed to list running containers")
	})
}

func TestEngine_Exec(t *testing.T) {
	var created container.ExecOptions
	client := &mockClient{
		ContainerExecCreateFunc: func(_ context.Context, name string, opts container.ExecOptions) (container.ExecCreateResponse, error) {
			require.Equal(t, "microceph", name)
			created = opts
			return container.ExecCreateResponse{ID: "exec-1"}, nil
		},
		ContainerExecAttachFunc: func(_ context.Context, id string, _ container.ExecAttachOptions) (types.HijackedResponse, error) {
			require.Equal(t, "exec-1", id)
			return hijacked(t, "health: HEALTH_OK\n", "warning\n"), nil
		},
		ContainerExecInspectFunc: func(_ context.Context, id string) (container.ExecInspect, error) {
			return container.ExecInspect{ExecID: id, ExitCode: 3}, nil
		},
	}

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	code, err := NewEngine(client).Exec(
		t.Context(),
		"microceph",
		[]string{"/snap/bin/microceph.ceph", "-s"},
		[]string{"A=1"},
		stdout,
		stderr,
	)
	require.NoError(t, err)
	require.Equal(t, 3, code)
	require.Equal(t, "health: HEALTH_OK\n", stdout.String())
	require.Equal(t, "warning\n", stderr.String())

	require.Equal(t, []string{"/snap/bin/microceph.ceph", "-s"}, created.Cmd)
	require.Equal(t, []string{"A=1"}, created.Env)
	require.True(t, created.AttachStdout)
	require.True(t, created.AttachStderr)
}

func TestEngine_ExecErrors(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		client := &mockClient{
			ContainerExecCreateFunc: func(context.Context, string, container.ExecOptions) (container.ExecCreateResponse, error) {
				return container.ExecCreateResponse{}, errors.New("no such container")
			},
		}

		_, err := NewEngine(client).Exec(t.Context(), "microceph", []string{"true"}, nil, nil, nil)
		require.ErrorContains(t, err, "failed to create exec in container: microceph")
	})

	t.Run("inspect", func(t *testing.T) {
		client := &mockClient{
			ContainerExecCreateFunc: func(context.Context, string, container.ExecOptions) (container.ExecCreateResponse, error) {
				return container.ExecCreateResponse{ID: "exec-1"}, nil
			},
			ContainerExecAttachFunc: func(context.Context, string, container.ExecAttachOptions) (types.HijackedResponse, error) {
				return hijacked(t, "", ""), nil
			},
			ContainerExecInspectFunc: func(context.Context, string) (container.ExecInspect, error) {
				return container.ExecInspect{}, errors.New("gone")
			},
		}

		_, err := NewEngine(client).Exec(t.Context(), "microceph", []string{"true"}, nil, new(bytes.Buffer), new(bytes.Buffer))
		require.ErrorContains(t, err, "failed to inspect exec in container: microceph")
	})
}
