package objectstore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/npclaudiu/devenv/pkg/config"
	"github.com/npclaudiu/devenv/pkg/consts"
	"github.com/npclaudiu/devenv/pkg/executor"
	"github.com/npclaudiu/devenv/pkg/poll"
	"github.com/pkg/errors"
)

// Persistence strategies for provisioned credentials.
const (
	// Merge updates object_store.access_key and object_store.secret_key in
	// place, leaving the rest of the section alone.
	Merge Strategy = "merge"

	// Replace rewrites the whole object_store section.
	Replace Strategy = "replace"
)

var (
	progress = color.New(color.FgCyan)
	success  = color.New(color.FgGreen)
	warning  = color.New(color.FgYellow)
)

type (
	// Strategy selects how credentials are written to config.yaml.
	Strategy string

	// Runner executes gateway and cluster tools.
	Runner interface {
		Run(ctx context.Context, name string, args []string, opts executor.Options) (*executor.Result, error)
	}

	// Containers reports whether a container is running. Satisfied by
	// *docker.Engine.
	Containers interface {
		IsRunning(ctx context.Context, name string) (bool, error)
	}

	// Poller waits for readiness checks. Satisfied by *poll.Poller.
	Poller interface {
		Until(ctx context.Context, name string, policy poll.Policy, probe poll.Probe) (poll.Result, error)
	}

	// Toolset names the cluster tools and where they run. Container is empty
	// for tools installed on the host.
	Toolset struct {
		Container    string
		Ceph         string
		MicroCeph    string
		RadosGWAdmin string
	}

	// Provisioner creates (or looks up) an object-store user on the local
	// gateway and stores its key pair in config.yaml.
	Provisioner struct {
		runner     Runner
		containers Containers
		poller     Poller
		store      *config.Store
		tools      Toolset
		container  string
		out        io.Writer
		logger     *slog.Logger
	}

	// ProvisionerConfig holds the collaborators of a Provisioner.
	ProvisionerConfig struct {
		Runner     Runner
		Containers Containers
		Poller     Poller
		Store      *config.Store

		// Tools defaults to ContainerTools(Container).
		Tools *Toolset

		// Container is the MicroCeph container. Defaults to "microceph".
		Container string

		// Out receives progress messages. Defaults to os.Stdout.
		Out    io.Writer
		Logger *slog.Logger
	}

	// ProvisionOptions control a single provisioning run.
	ProvisionOptions struct {
		User     string
		Strategy Strategy

		// Endpoint, Bucket and Region override the defaults written by the
		// Replace strategy.
		Endpoint string
		Bucket   string
		Region   string
	}
)

// ContainerTools runs the MicroCeph snap binaries inside container.
func ContainerTools(container string) Toolset {
	return Toolset{
		Container:    container,
		Ceph:         consts.ContainerCephBin,
		MicroCeph:    consts.ContainerMicroCeph,
		RadosGWAdmin: consts.ContainerRadosGW,
	}
}

// LocalTools runs ceph, microceph and radosgw-admin from the host PATH.
func LocalTools() Toolset {
	return Toolset{
		Ceph:         "ceph",
		MicroCeph:    "microceph",
		RadosGWAdmin: "radosgw-admin",
	}
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(cfg ProvisionerConfig) *Provisioner {
	p := &Provisioner{
		runner:     cfg.Runner,
		containers: cfg.Containers,
		poller:     cfg.Poller,
		store:      cfg.Store,
		container:  cfg.Container,
		out:        cfg.Out,
		logger:     cfg.Logger,
	}

	if p.container == "" {
		p.container = consts.DefaultContainer
	}
	if cfg.Tools != nil {
		p.tools = *cfg.Tools
	} else {
		p.tools = ContainerTools(p.container)
	}
	if p.out == nil {
		p.out = os.Stdout
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// WaitForCluster polls `ceph -s` until the cluster reports HEALTH_OK.
func (p *Provisioner) WaitForCluster(ctx context.Context, policy poll.Policy) error {
	_, err := p.poller.Until(ctx, "cluster health", policy, p.markerProbe(p.tools.Ceph, []string{"-s"}, consts.HealthMarker))
	return err
}

// Provision waits for the gateway, obtains the user's key pair and writes it
// to config.yaml. Nothing is written when the key pair cannot be parsed.
func (p *Provisioner) Provision(ctx context.Context, opts ProvisionOptions) (Credentials, error) {
	if opts.User == "" {
		opts.User = consts.DefaultCephUser
	}
	switch opts.Strategy {
	case "":
		opts.Strategy = Merge
	case Merge, Replace:
	default:
		return Credentials{}, errors.Errorf("unknown credential strategy: %s", opts.Strategy)
	}

	_, _ = progress.Fprintf(p.out, "Waiting for container %s", p.container)
	if _, err := p.poller.Until(ctx, "container "+p.container, poll.Policy{Interval: consts.ContainerPollInterval}, p.containerProbe); err != nil {
		return Credentials{}, err
	}
	_, _ = io.WriteString(p.out, "\n")

	_, _ = progress.Fprint(p.out, "Waiting for cluster health")
	if err := p.WaitForCluster(ctx, poll.Policy{Interval: consts.HealthPollInterval}); err != nil {
		return Credentials{}, err
	}
	_, _ = io.WriteString(p.out, "\n")

	_, _ = progress.Fprint(p.out, "Waiting for the object gateway")
	gateway := p.markerProbe(p.tools.MicroCeph, []string{"status"}, consts.GatewayMarker)
	if _, err := p.poller.Until(ctx, "object gateway", poll.Policy{Interval: consts.GatewayPollInterval}, gateway); err != nil {
		return Credentials{}, err
	}
	_, _ = io.WriteString(p.out, "\n")

	raw, err := p.userInfo(ctx, opts.User)
	if err != nil {
		return Credentials{}, err
	}

	parsed := ParseCredentials(raw)
	p.logger.Debug("parsed user credentials", "user", opts.User, "stage", parsed.Stage)

	switch parsed.Stage {
	case StageFailed:
		return Credentials{}, errors.Wrapf(ErrCredentialParse, "user %s", opts.User)
	case StageRecovered:
		_, _ = warning.Fprintln(p.out, "User output was not valid JSON; recovered credentials by pattern match")
	}

	if err := p.persist(parsed.Credentials, opts); err != nil {
		return Credentials{}, err
	}

	_, _ = success.Fprintf(p.out, "Credentials for %s written to %s\n", opts.User, p.store.Path)
	return parsed.Credentials, nil
}

func (p *Provisioner) containerProbe(ctx context.Context) (bool, error) {
	return p.containers.IsRunning(ctx, p.container)
}

// markerProbe succeeds when the tool exits cleanly and prints marker.
func (p *Provisioner) markerProbe(tool string, args []string, marker string) poll.Probe {
	return func(ctx context.Context) (bool, error) {
		res, err := p.runner.Run(ctx, tool, args, executor.Options{Container: p.tools.Container})
		if err != nil {
			return false, err
		}

		return res.Success() && strings.Contains(res.Stdout, marker), nil
	}
}

// userInfo creates the gateway user, or looks it up when it already exists.
func (p *Provisioner) userInfo(ctx context.Context, user string) (string, error) {
	opts := executor.Options{Container: p.tools.Container}

	create, err := p.runner.Run(ctx, p.tools.RadosGWAdmin, []string{
		"user", "create", "--uid=" + user, "--display-name=" + user,
	}, opts)
	if err != nil {
		return "", err
	}

	if create.Success() {
		return create.Stdout, nil
	}

	p.logger.Debug("user create failed, looking up existing user", "user", user, "exit", create.ExitCode)

	opts.Check = true
	info, err := p.runner.Run(ctx, p.tools.RadosGWAdmin, []string{"user", "info", "--uid=" + user}, opts)
	if err != nil {
		return "", errors.Wrapf(err, "failed to look up object store user %s", user)
	}

	return info.Stdout, nil
}

func (p *Provisioner) persist(creds Credentials, opts ProvisionOptions) error {
	doc, err := p.store.Ensure()
	if err != nil {
		return err
	}

	switch opts.Strategy {
	case Merge:
		if err := doc.Set(SectionKey+".access_key", creds.AccessKey); err != nil {
			return err
		}
		if err := doc.Set(SectionKey+".secret_key", creds.SecretKey); err != nil {
			return err
		}
	case Replace:
		section := DefaultConfig(creds)
		if opts.Endpoint != "" {
			section.Endpoint = opts.Endpoint
		}
		if opts.Bucket != "" {
			section.Bucket = opts.Bucket
		}
		if opts.Region != "" {
			section.Region = opts.Region
		}

		if err := doc.SetSection(SectionKey, section); err != nil {
			return err
		}
	default:
		return errors.Errorf("unknown credential strategy: %s", opts.Strategy)
	}

	return doc.Save()
}
