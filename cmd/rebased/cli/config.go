package cli

import (
	"bytes"
	"os"
	"path/filepath"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
	"gopkg.in/yaml.v3"
)

const (
	configFile  = "config.yaml"
	genesisFile = "genesis.json"
	keysDir     = "keys"
)

// Config is the per home configuration of a domain node.
type Config struct {
	// Domain is the chain id of the node.
	Domain string `yaml:"domain"`
	// Database is the node state path, relative to home.
	Database string `yaml:"database"`
	// Operator is the name of the key used when no --key is given.
	Operator string `yaml:"operator"`
	// LogLevel is used when --log-level is not set.
	LogLevel string `yaml:"log_level"`
	// Queue is the relay queue path, relative to home.
	Queue string `yaml:"queue"`
}

// DefaultConfig returns the configuration written by init.
func DefaultConfig(domain string) *Config {
	return &Config{
		Domain:   domain,
		Database: "data/node.db",
		Operator: "operator",
		LogLevel: "info",
		Queue:    "relay.db",
	}
}

// Validate returns an error if the configuration cannot be used.
func (c *Config) Validate() error {
	if !rebase.IsValidChainID(c.Domain) {
		return errors.Wrapf(errors.ErrInput, "domain %q", c.Domain)
	}
	if c.Database == "" {
		return errors.Wrap(errors.ErrEmpty, "database")
	}
	if c.Operator == "" {
		return errors.Wrap(errors.ErrEmpty, "operator")
	}
	return nil
}

// LoadConfig reads config.yaml from home. Unknown fields are rejected.
func LoadConfig(home string) (*Config, error) {
	raw, err := os.ReadFile(filepath.Join(home, configFile))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "config: %s", err)
	}
	var conf Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&conf); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "parse config: %s", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	return &conf, nil
}

// WriteConfig stores conf as config.yaml in home.
func WriteConfig(home string, conf *Config) error {
	if err := conf.Validate(); err != nil {
		return err
	}
	raw, err := yaml.Marshal(conf)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "encode config: %s", err)
	}
	if err := os.MkdirAll(home, 0o700); err != nil {
		return errors.Wrap(err, "create home")
	}
	if err := os.WriteFile(filepath.Join(home, configFile), raw, 0o600); err != nil {
		return errors.Wrap(err, "write config")
	}
	return nil
}

// path resolves a path relative to home.
func path(home, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(home, p)
}
