// Package executor runs the external tools devenv orchestrates.
//
// Commands run either on the host or inside a named container (through the
// Containers interface, implemented by the docker package). Each call returns
// a Result holding captured stdout, stderr and the exit code.
//
// # Failure Semantics
//
// Readiness probes call tools that are expected to fail until a service comes
// up, so by default a non-zero exit status, or even a binary that cannot be
// started, is reported through the Result rather than as an error. Mandatory
// steps set Options.Check to get a *CommandFailedError instead:
//
//	res, err := exec.Run(ctx, "radosgw-admin", []string{"user", "info", "--uid=dev"}, executor.Options{
//		Container: "microceph",
//		Check:     true,
//	})
//
//	var failed *executor.CommandFailedError
//	if errors.As(err, &failed) {
//		fmt.Println(failed.ExitCode, failed.Stderr)
//	}
//
// # Tool Discovery
//
// Host binaries are resolved against Config.PathPrefix before PATH, and the
// prefix is prepended to PATH in the child environment. The working directory
// comes from Config.Dir. Neither touches the state of the current process.
package executor
