package metastore

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/npclaudiu/devenv/pkg/config"
	"github.com/npclaudiu/devenv/pkg/consts"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SectionKey is the top-level configuration key for the metastore.
const SectionKey = "meta_store"

// ErrMissingMetaStoreConfig is returned when config.yaml has no meta_store
// section.
var ErrMissingMetaStoreConfig = errors.New("meta_store configuration not found in config.yaml")

var validate = validator.New(validator.WithRequiredStructEnabled())

type (
	// Port is a TCP port. It decodes from both `5432` and `"5432"`.
	Port int

	// Config is the meta_store section of config.yaml.
	Config struct {
		Host     string `yaml:"host" validate:"required"`
		Port     Port   `yaml:"port" validate:"required,min=1,max=65535"`
		User     string `yaml:"user" validate:"required"`
		Password string `yaml:"password"`
		DBName   string `yaml:"dbname" validate:"required"`
		SSLMode  string `yaml:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	}
)

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Port) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: port must be a number", value.Line)
	}

	n, err := strconv.Atoi(strings.TrimSpace(value.Value))
	if err != nil {
		return errors.Errorf("line %d: invalid port %q", value.Line, value.Value)
	}

	*p = Port(n)
	return nil
}

// LoadConfig decodes and validates the meta_store section of doc.
//
// Example:
//
//	doc, err := config.Load("config.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg, err := metastore.LoadConfig(doc)
//	if errors.Is(err, metastore.ErrMissingMetaStoreConfig) {
//		log.Fatal("add a meta_store section to config.yaml")
//	}
//
//	fmt.Println(metastore.DSN(cfg))
func LoadConfig(doc *config.Document) (Config, error) {
	var cfg Config

	found, err := doc.Decode(SectionKey, &cfg)
	if err != nil {
		return cfg, err
	}

	if !found {
		return cfg, ErrMissingMetaStoreConfig
	}

	if err := validate.Struct(cfg); err != nil {
		return cfg, errors.Wrap(err, "invalid meta_store configuration")
	}

	return cfg, nil
}

// DSN renders cfg as a postgres:// connection string. User and password are
// percent-encoded as URI components, so a space becomes %20 and @ becomes
// %40. An empty sslmode means "disable".
func DSN(cfg Config) string {
	mode := cfg.SSLMode
	if mode == "" {
		mode = consts.DefaultPostgresSSLMode
	}

	return "postgres://" +
		encodeComponent(cfg.User) + ":" + encodeComponent(cfg.Password) +
		"@" + cfg.Host + ":" + strconv.Itoa(int(cfg.Port)) +
		"/" + cfg.DBName + "?sslmode=" + mode
}

func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
