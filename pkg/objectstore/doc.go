// Package objectstore provisions S3 credentials on the local MicroCeph
// gateway and makes sure the configured bucket exists.
//
// Provisioning waits for the MicroCeph container, the cluster's health and
// the object gateway, then creates the gateway user (falling back to looking
// up an existing one) and writes the key pair to config.yaml. Credentials are
// merged into the object_store section by default, or replace it entirely.
//
// # Usage Example
//
//	p := objectstore.NewProvisioner(objectstore.ProvisionerConfig{
//		Runner:     exec,
//		Containers: engine,
//		Poller:     poll.New(clock.WallClock, os.Stdout, slog.Default()),
//		Store:      config.NewStore("config.yaml", "config.example.yaml"),
//	})
//
//	creds, err := p.Provision(ctx, objectstore.ProvisionOptions{User: "hercules"})
//	if errors.Is(err, objectstore.ErrCredentialParse) {
//		log.Fatal("gateway returned no usable keys")
//	}
package objectstore
