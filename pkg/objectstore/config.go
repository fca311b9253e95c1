package objectstore

import (
	"github.com/go-playground/validator/v10"
	"github.com/npclaudiu/devenv/pkg/config"
	"github.com/npclaudiu/devenv/pkg/consts"
	"github.com/pkg/errors"
)

// SectionKey is the top-level configuration key for the object store.
const SectionKey = "object_store"

// ErrMissingObjectStoreConfig is returned when config.yaml has no
// object_store section.
var ErrMissingObjectStoreConfig = errors.New("object_store configuration not found in config.yaml")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the object_store section of config.yaml.
type Config struct {
	Endpoint  string `yaml:"endpoint" validate:"required,url"`
	AccessKey string `yaml:"access_key" validate:"required"`
	SecretKey string `yaml:"secret_key" validate:"required"`
	Bucket    string `yaml:"bucket" validate:"required"`
	Region    string `yaml:"region" validate:"required"`
}

// DefaultConfig returns a section pointing at the local gateway with the
// given credentials.
func DefaultConfig(creds Credentials) Config {
	return Config{
		Endpoint:  consts.DefaultS3Endpoint,
		AccessKey: creds.AccessKey,
		SecretKey: creds.SecretKey,
		Bucket:    consts.DefaultS3Bucket,
		Region:    consts.DefaultS3Region,
	}
}

// LoadConfig decodes and validates the object_store section of doc.
func LoadConfig(doc *config.Document) (Config, error) {
	var cfg Config

	found, err := doc.Decode(SectionKey, &cfg)
	if err != nil {
		return cfg, err
	}

	if !found {
		return cfg, ErrMissingObjectStoreConfig
	}

	if err := validate.Struct(cfg); err != nil {
		return cfg, errors.Wrap(err, "invalid object_store configuration")
	}

	return cfg, nil
}
