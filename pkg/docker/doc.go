// Package docker wraps the Docker tooling the development environment is
// built on.
//
// Two pieces live here:
//
//   - Engine talks to the Docker Engine API. It checks whether a container is
//     running and executes commands inside it, demultiplexing stdout and
//     stderr and reporting the command's exit code. It satisfies
//     executor.Containers, so the executor can target containers directly.
//   - Compose drives `docker compose` for the project's compose file (up,
//     down, ps) through an executor.
//
// Disposable containers for integration tests live in the dockertest
// subpackage, so testcontainers stays out of the devenv binary.
//
// # Usage Example
//
//	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	engine := docker.NewEngine(cli)
//	exec := executor.New(executor.Config{Containers: engine})
//
//	res, err := exec.Run(ctx, "/snap/bin/microceph.ceph", []string{"-s"}, executor.Options{
//		Container: "microceph",
//	})
//
//	compose := docker.NewCompose("devenv/docker-compose.yml", exec)
//	err = compose.Up(ctx, docker.UpOptions{Build: true, Stream: true})
package docker
