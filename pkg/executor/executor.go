package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/pkg/errors"
)

type (
	// Containers defines the operations needed to run a command inside a
	// running container. This interface is satisfied by *docker.Engine.
	Containers interface {
		Exec(ctx context.Context, container string, argv, env []string, stdout, stderr io.Writer) (int, error)
	}

	// Executor runs external commands, either on the host or inside a named
	// container.
	//
	// Tool discovery is driven by Config rather than by the process working
	// directory or PATH, so several executors with different settings can
	// coexist in one process.
	//
	// Example usage:
	//
	//	exec := executor.New(executor.Config{
	//		Dir:        "/path/to/repo",
	//		PathPrefix: []string{"/path/to/repo/devenv/bin"},
	//	})
	//
	//	res, err := exec.Run(ctx, "dbmate", []string{"status"}, executor.Options{})
	//	if err != nil {
	//		log.Fatal(err)
	//	}
	//
	//	fmt.Println(res.ExitCode, res.Stdout)
	Executor struct {
		dir        string
		pathPrefix []string
		env        map[string]string
		stdout     io.Writer
		stderr     io.Writer
		containers Containers
		logger     *slog.Logger
	}

	// Config contains configuration options for creating a new Executor.
	Config struct {
		// Dir is the working directory for host commands. Defaults to the
		// current directory.
		Dir string

		// PathPrefix lists directories searched for binaries before PATH. They
		// are also prepended to PATH in the child environment.
		PathPrefix []string

		// Env holds extra variables added to every host command.
		Env map[string]string

		// Stdout and Stderr receive streamed output (see Options.Stream).
		// Default to os.Stdout and os.Stderr.
		Stdout io.Writer
		Stderr io.Writer

		// Containers runs commands for Options.Container. Optional when no
		// container commands are issued.
		Containers Containers

		// Logger receives a debug record for each command. Defaults to slog.Default().
		Logger *slog.Logger
	}

	// Options control a single command invocation.
	Options struct {
		// Container runs the command inside the named container instead of on
		// the host.
		Container string

		// Check turns a non-zero exit status into a *CommandFailedError. When
		// false, non-zero exits and spawn failures are reported through Result.
		Check bool

		// Stream copies output to the executor's writers while it is captured.
		Stream bool

		// Env holds extra variables for this invocation only.
		Env map[string]string
	}

	// Result is the captured outcome of a command.
	Result struct {
		Stdout   string
		Stderr   string
		ExitCode int
	}

	// CommandFailedError is returned by Run when Options.Check is set and the
	// command exits with a non-zero status.
	CommandFailedError struct {
		Command  string
		ExitCode int
		Stderr   string
	}
)

// SpawnFailed is the exit code reported when a command could not be started.
const SpawnFailed = -1

// New creates a new Executor with the provided configuration.
func New(config Config) *Executor {
	e := &Executor{
		dir:        config.Dir,
		pathPrefix: config.PathPrefix,
		env:        config.Env,
		stdout:     config.Stdout,
		stderr:     config.Stderr,
		containers: config.Containers,
		logger:     config.Logger,
	}

	if e.stdout == nil {
		e.stdout = os.Stdout
	}
	if e.stderr == nil {
		e.stderr = os.Stderr
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

func (e *CommandFailedError) Error() string {
	msg := fmt.Sprintf("command failed with exit code %d: %s", e.ExitCode, e.Command)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\n" + stderr
	}

	return msg
}

// Success reports whether the command exited with status zero.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Run executes name with args and returns its captured output.
//
// With Options.Check unset, Run only returns an error when the context is
// cancelled; everything else, including a missing binary, is described by the
// Result. This lets readiness probes treat "not there yet" as a routine outcome.
func (e *Executor) Run(ctx context.Context, name string, args []string, opts Options) (*Result, error) {
	argv := append([]string{name}, args...)
	line := shellquote.Join(argv...)

	if opts.Container != "" {
		e.logger.Debug("running command", "container", opts.Container, "cmd", line)
	} else {
		e.logger.Debug("running command", "dir", e.dir, "cmd", line)
	}

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	var outW, errW io.Writer = stdout, stderr
	if opts.Stream {
		outW = io.MultiWriter(stdout, e.stdout)
		errW = io.MultiWriter(stderr, e.stderr)
	}

	var (
		code int
		err  error
	)

	if opts.Container != "" {
		code, err = e.runInContainer(ctx, opts, argv, outW, errW)
	} else {
		code, err = e.runOnHost(ctx, opts, argv, outW, errW)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, errors.Wrapf(ctxErr, "command interrupted: %s", line)
	}

	if err != nil {
		if opts.Check {
			return nil, errors.Wrapf(err, "failed to run command: %s", line)
		}

		e.logger.Debug("command could not be started", "cmd", line, "err", err)
		return &Result{Stdout: stdout.String(), Stderr: err.Error(), ExitCode: SpawnFailed}, nil
	}

	res := &Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: code}
	if opts.Check && code != 0 {
		return res, &CommandFailedError{Command: line, ExitCode: code, Stderr: res.Stderr}
	}

	return res, nil
}

func (e *Executor) runInContainer(ctx context.Context, opts Options, argv []string, stdout, stderr io.Writer) (int, error) {
	if e.containers == nil {
		return 0, errors.Errorf("no container runtime configured for container %s", opts.Container)
	}

	return e.containers.Exec(ctx, opts.Container, argv, envList(opts.Env), stdout, stderr)
}

func (e *Executor) runOnHost(ctx context.Context, opts Options, argv []string, stdout, stderr io.Writer) (int, error) {
	bin, err := e.lookPath(argv[0])
	if err != nil {
		return 0, err
	}

	cmd := exec.CommandContext(ctx, bin, argv[1:]...)
	cmd.Dir = e.dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = e.environ(opts.Env)

	err = cmd.Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	if err != nil {
		return 0, err
	}

	return 0, nil
}

// lookPath resolves name against PathPrefix first and then PATH.
func (e *Executor) lookPath(name string) (string, error) {
	if strings.ContainsRune(name, filepath.Separator) {
		return name, nil
	}

	for _, dir := range e.pathPrefix {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return candidate, nil
		}
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", errors.Wrapf(err, "executable not found: %s", name)
	}

	return path, nil
}

func (e *Executor) environ(extra map[string]string) []string {
	env := os.Environ()

	if len(e.pathPrefix) > 0 {
		path := strings.Join(e.pathPrefix, string(os.PathListSeparator))
		if current := os.Getenv("PATH"); current != "" {
			path += string(os.PathListSeparator) + current
		}

		env = append(env, "PATH="+path)
	}

	// Later entries win for duplicate keys in exec.Cmd.Env.
	env = append(env, envList(e.env)...)
	return append(env, envList(extra)...)
}

func envList(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list := make([]string, 0, len(keys))
	for _, k := range keys {
		list = append(list, k+"="+vars[k])
	}

	return list
}
