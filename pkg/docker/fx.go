package docker

import (
	"context"

	"github.com/docker/docker/client"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Module provides a DockerClient configured from the environment (DOCKER_HOST
// and friends). The client connects lazily, so commands that never touch
// Docker do not need a running daemon.
var Module = fx.Module("docker",
	fx.Provide(
		fx.Annotate(newClient, fx.As(new(DockerClient))),
	),
)

func newClient(lc fx.Lifecycle) (*client.Client, error) {
	cl, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Docker client")
	}

	lc.Append(fx.StopHook(func(context.Context) error {
		return cl.Close()
	}))

	return cl, nil
}
