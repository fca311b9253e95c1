// Package dockertest starts disposable containers for integration tests.
package dockertest

import (
	"context"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultPostgresImage is the image used for throwaway metastore databases.
	DefaultPostgresImage = "postgres:17-alpine"

	postgresPort = nat.Port("5432/tcp")
)

type (
	// PostgresOptions describe a throwaway Postgres container.
	PostgresOptions struct {
		// Image defaults to DefaultPostgresImage.
		Image    string
		User     string
		Password string
		Database string
	}

	// PostgresContainer manages a disposable Postgres server, used to check
	// metastore tooling against a real database.
	PostgresContainer struct {
		options   PostgresOptions
		container testcontainers.Container
	}

	// Endpoint is where a started container accepts connections.
	Endpoint struct {
		Host string
		Port int
	}
)

// NewPostgres creates a Postgres container description. Nothing is started
// until Start is called.
//
// Example:
//
//	pg := dockertest.NewPostgres(dockertest.PostgresOptions{User: "git", Password: "secret", Database: "git_server"})
//	if err := pg.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer pg.Stop(ctx)
//
//	ep, _ := pg.Endpoint(ctx)
func NewPostgres(opts PostgresOptions) *PostgresContainer {
	if opts.Image == "" {
		opts.Image = DefaultPostgresImage
	}

	return &PostgresContainer{options: opts}
}

// Start starts the container and waits until Postgres accepts connections.
func (c *PostgresContainer) Start(ctx context.Context) error {
	if c.container != nil {
		return errors.New("container is already running")
	}

	req := testcontainers.ContainerRequest{
		Image:        c.options.Image,
		ExposedPorts: []string{string(postgresPort)},
		Env: map[string]string{
			"POSTGRES_USER":     c.options.User,
			"POSTGRES_PASSWORD": c.options.Password,
			"POSTGRES_DB":       c.options.Database,
		},
		// The entrypoint restarts the server once after init scripts run.
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort(postgresPort),
		).WithDeadline(2 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to start Postgres container")
	}

	c.container = container
	return nil
}

// Stop terminates and removes the container.
func (c *PostgresContainer) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil
	}

	err := c.container.Terminate(ctx)
	c.container = nil

	if err != nil {
		return errors.Wrap(err, "failed to stop Postgres container")
	}

	return nil
}

// Endpoint returns the host and mapped port of the running container.
func (c *PostgresContainer) Endpoint(ctx context.Context) (Endpoint, error) {
	if c.container == nil {
		return Endpoint{}, errors.New("container is not running")
	}

	host, err := c.container.Host(ctx)
	if err != nil {
		return Endpoint{}, errors.Wrap(err, "failed to get container host")
	}

	port, err := c.container.MappedPort(ctx, postgresPort)
	if err != nil {
		return Endpoint{}, errors.Wrap(err, "failed to get container port")
	}

	return Endpoint{Host: host, Port: port.Int()}, nil
}

// IsRunning returns true if the container has been started and not stopped.
func (c *PostgresContainer) IsRunning() bool {
	return c.container != nil
}
