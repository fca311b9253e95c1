package testutil

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/pkg/errors"
)

// ErrContainerNotFound is returned by the mock for execs in unknown containers.
var ErrContainerNotFound = errors.New("container not found")

type (
	// ExecResult is what a mocked in-container command prints and returns.
	ExecResult struct {
		Stdout   string
		Stderr   string
		ExitCode int
	}

	// MockDockerClient implements docker.DockerClient for tests. Execs are
	// answered by ExecFunc; list calls report the containers in Running.
	MockDockerClient struct {
		ContainerListFunc func(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
		ExecFunc          func(container string, cmd []string) ExecResult

		// Running lists the names of running containers.
		Running []string

		mu    sync.Mutex
		execs map[string]*pendingExec
		Calls [][]string
	}

	pendingExec struct {
		container string
		cmd       []string
		result    ExecResult
	}
)

// SkipIfNoDocker skips the test if Docker is not available
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("Docker not available")
	}

	cmd := exec.CommandContext(t.Context(), "docker", "ps")
	if err := cmd.Run(); err != nil {
		t.Skip("Docker daemon not running")
	}
}

// NewMockDockerClient creates a mock where the given containers are running
// and every exec succeeds with no output.
func NewMockDockerClient(running ...string) *MockDockerClient {
	return &MockDockerClient{
		Running: running,
		ExecFunc: func(string, []string) ExecResult {
			return ExecResult{}
		},
		execs: make(map[string]*pendingExec),
	}
}

// HealthyMicroCeph answers the cluster, gateway and user commands the way a
// ready single-node MicroCeph does, handing out the given key pair.
func HealthyMicroCeph(accessKey, secretKey string) func(string, []string) ExecResult {
	return func(_ string, cmd []string) ExecResult {
		switch {
		case strings.HasSuffix(cmd[0], "microceph.ceph"):
			return ExecResult{Stdout: "  cluster:\n    id:     4c1f\n    health: HEALTH_OK\n"}
		case strings.HasSuffix(cmd[0], "microceph.radosgw-admin"):
			return ExecResult{Stdout: `{"user_id":"hercules","keys":[{"user":"hercules","access_key":"` +
				accessKey + `","secret_key":"` + secretKey + `"}]}`}
		case strings.HasSuffix(cmd[0], "microceph"):
			return ExecResult{Stdout: "MicroCeph deployment summary:\n- microceph (10.0.0.2)\n  Services: mds, mgr, mon, rgw, osd\n"}
		default:
			return ExecResult{ExitCode: 127, Stderr: cmd[0] + ": not found"}
		}
	}
}

// ContainerList implements docker.DockerClient interface
func (m *MockDockerClient) ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error) {
	if m.ContainerListFunc != nil {
		return m.ContainerListFunc(ctx, options)
	}

	var list []container.Summary
	for _, name := range m.Running {
		if names := options.Filters.Get("name"); len(names) > 0 && !strings.Contains(name, names[0]) {
			continue
		}

		list = append(list, container.Summary{Names: []string{"/" + name}, State: "running"})
	}

	return list, nil
}

// ContainerExecCreate implements docker.DockerClient interface
func (m *MockDockerClient) ContainerExecCreate(_ context.Context, name string, options container.ExecOptions) (container.ExecCreateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for _, running := range m.Running {
		found = found || running == name
	}
	if !found {
		return container.ExecCreateResponse{}, errors.Wrap(ErrContainerNotFound, name)
	}

	if m.execs == nil {
		m.execs = make(map[string]*pendingExec)
	}

	id := "exec-" + strconv.Itoa(len(m.Calls)+1)
	m.Calls = append(m.Calls, options.Cmd)
	m.execs[id] = &pendingExec{container: name, cmd: options.Cmd}

	return container.ExecCreateResponse{ID: id}, nil
}

// ContainerExecAttach implements docker.DockerClient interface
func (m *MockDockerClient) ContainerExecAttach(_ context.Context, id string, _ container.ExecAttachOptions) (types.HijackedResponse, error) {
	m.mu.Lock()
	pending, ok := m.execs[id]
	m.mu.Unlock()

	if !ok {
		return types.HijackedResponse{}, errors.Errorf("unknown exec %s", id)
	}

	if m.ExecFunc != nil {
		pending.result = m.ExecFunc(pending.container, pending.cmd)
	}

	buf := new(bytes.Buffer)
	if pending.result.Stdout != "" {
		_, _ = stdcopy.NewStdWriter(buf, stdcopy.Stdout).Write([]byte(pending.result.Stdout))
	}
	if pending.result.Stderr != "" {
		_, _ = stdcopy.NewStdWriter(buf, stdcopy.Stderr).Write([]byte(pending.result.Stderr))
	}

	// HijackedResponse.Close closes Conn, so it must be set.
	conn, peer := net.Pipe()
	_ = peer.Close()

	return types.HijackedResponse{Conn: conn, Reader: bufio.NewReader(buf)}, nil
}

// ContainerExecInspect implements docker.DockerClient interface
func (m *MockDockerClient) ContainerExecInspect(_ context.Context, id string) (container.ExecInspect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending, ok := m.execs[id]
	if !ok {
		return container.ExecInspect{}, errors.Errorf("unknown exec %s", id)
	}

	return container.ExecInspect{ExecID: id, ExitCode: pending.result.ExitCode}, nil
}

// Executed reports whether a command whose argv starts with prefix ran in a
// container.
func (m *MockDockerClient) Executed(prefix ...string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, call := range m.Calls {
		if len(call) >= len(prefix) && strings.Join(call[:len(prefix)], "\x00") == strings.Join(prefix, "\x00") {
			return true
		}
	}

	return false
}
