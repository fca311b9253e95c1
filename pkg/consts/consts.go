package consts

import (
	"os"
	"time"
)

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// ModeSecretFile is used for files that hold credentials (config.yaml)
	ModeSecretFile = os.FileMode(0o600)
)

// Repository layout, relative to the project root.
const (
	ConfigFile        = "config.yaml"
	ExampleConfigFile = "config.example.yaml"
	SqlcConfigFile    = "sqlc.yaml"
	DevenvDir         = "devenv"
	ComposeFile       = "docker-compose.yml"
	BinDir            = "bin"
	MetastoreDir      = "internal/metastore/pg"
	MigrationsDir     = "migrations"
	SchemaFile        = "schema.sql"
)

// MicroCeph defaults.
const (
	DefaultContainer   = "microceph"
	DefaultCephUser    = "hercules"
	HealthMarker       = "health: HEALTH_OK"
	GatewayMarker      = "rgw"
	DefaultS3Endpoint  = "http://localhost:8000"
	DefaultS3Bucket    = "git-lfs"
	DefaultS3Region    = "us-east-1"
	ContainerCephBin   = "/snap/bin/microceph.ceph"
	ContainerMicroCeph = "/snap/bin/microceph"
	ContainerRadosGW   = "/snap/bin/microceph.radosgw-admin"
)

// Poll intervals and budgets.
const (
	ClusterBootInterval    = 5 * time.Second
	ClusterBootAttempts    = 60
	ContainerPollInterval  = 2 * time.Second
	HealthPollInterval     = 5 * time.Second
	GatewayPollInterval    = 2 * time.Second
	BucketPollInterval     = 1 * time.Second
	BucketPollAttempts     = 30
	DefaultPostgresSSLMode = "disable"
)
