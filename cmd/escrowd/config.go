package main

import (
	"os"
	"path/filepath"

	escrowd "github.com/iov-one/weave-escrow/cmd/escrowd/app"
	"github.com/iov-one/weave-escrow/errors"
	"gopkg.in/yaml.v3"
)

// Config is the content of the daemon configuration file. Every field is
// optional and falls back to the value of defaultConfig.
type Config struct {
	// Home is the directory holding the store and the genesis file.
	Home    string `yaml:"home"`
	Backend string `yaml:"backend"`
	ChainID string `yaml:"chain_id"`

	HTTPAddr string `yaml:"http_addr"`
	ABCIAddr string `yaml:"abci_addr"`

	Kafka KafkaConfig `yaml:"kafka"`

	LogLevel string `yaml:"log_level"`
	Debug    bool   `yaml:"debug"`
}

// KafkaConfig enables publishing of committed events when both brokers
// and topic are set.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers,omitempty"`
	Topic   string   `yaml:"topic,omitempty"`
}

// Enabled returns true if events should be published to kafka.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

func defaultHome() string {
	return filepath.Join(os.Getenv("HOME"), ".escrowd")
}

func defaultConfig(home string) Config {
	return Config{
		Home:     home,
		Backend:  escrowd.BackendIAVL,
		ChainID:  "escrow-dev",
		HTTPAddr: "localhost:8080",
		ABCIAddr: "tcp://localhost:26658",
		LogLevel: "info",
	}
}

// configPath returns the location of the configuration file. The
// ESCROWD_CONFIG variable takes precedence over the file inside home.
func configPath(home string) string {
	return env("ESCROWD_CONFIG", filepath.Join(home, "config.yaml"))
}

// loadConfig reads the configuration of given home directory. A missing
// file results in the default configuration.
func loadConfig(home string) (*Config, error) {
	conf := defaultConfig(home)
	raw, err := os.ReadFile(configPath(home))
	switch {
	case os.IsNotExist(err):
		return &conf, nil
	case err != nil:
		return nil, errors.Wrapf(errors.ErrInput, "read config: %s", err)
	}
	if err := yaml.Unmarshal(raw, &conf); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "parse config: %s", err)
	}
	if conf.Home == "" {
		conf.Home = home
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate returns an error if the configuration cannot be used.
func (c *Config) Validate() error {
	switch c.Backend {
	case escrowd.BackendIAVL, escrowd.BackendPebble:
	default:
		return errors.Wrapf(errors.ErrInput, "unknown backend %q", c.Backend)
	}
	if c.Home == "" {
		return errors.Wrap(errors.ErrEmpty, "home")
	}
	if c.Kafka.Topic != "" && len(c.Kafka.Brokers) == 0 {
		return errors.Wrap(errors.ErrEmpty, "kafka brokers")
	}
	return nil
}

// save writes the configuration file, refusing to overwrite an existing
// one.
func (c *Config) save() error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "marshal config: %s", err)
	}
	path := configPath(c.Home)
	fd, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return errors.Wrapf(errors.ErrDuplicate, "config file %s", path)
		}
		return errors.Wrapf(errors.ErrInput, "create config: %s", err)
	}
	defer fd.Close()
	if _, err := fd.Write(raw); err != nil {
		return errors.Wrapf(errors.ErrInput, "write config: %s", err)
	}
	return fd.Close()
}

func (c *Config) genesisPath() string {
	return filepath.Join(c.Home, "genesis.json")
}

// env returns the value of an environment variable if provided (even if empty)
// or a fallback value.
func env(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}
