// Package config provides configuration management for the elevation client.
// It uses koanf v2 to load configuration from YAML files.
//
// Configuration is loaded from /etc/elevate/config.yaml by default. Unlike a
// long-running service, the client must work out of the box on hosts that
// never shipped a config file, so a missing file is not an error: defaults
// apply for every field.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPath is the default location for the client configuration file.
const DefaultConfigPath = "/etc/elevate/config.yaml"

// DefaultSocketPath is the Unix domain socket where the elevation daemon
// listens. The daemon creates it with permissions that gate which users may
// even reach the admission check.
const DefaultSocketPath = "/run/elevated/daemon.sock"

// DefaultShell is the shell spawned when the request does not name one.
const DefaultShell = "/bin/sh"

// Config holds the client configuration loaded from the YAML config file.
type Config struct {
	// SocketPath is the daemon's Unix domain socket.
	SocketPath string `koanf:"socket_path"`

	// DefaultShell is used when no -s flag is given.
	DefaultShell string `koanf:"default_shell"`

	// LogLevel controls the verbosity of client logging.
	// Valid values: "debug", "info", "warn", "error".
	// Default: "warn" (the client shares its terminal with the session).
	LogLevel string `koanf:"log_level"`
}

// Validation errors returned by Load.
var (
	ErrSocketPathRelative = errors.New("socket_path must be an absolute path")
	ErrShellRelative      = errors.New("default_shell must be an absolute path")
)

// Load reads configuration from the specified YAML file path. A missing
// file yields the default configuration; a present but malformed file is
// an error.
func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.SocketPath == "" {
		c.SocketPath = DefaultSocketPath
	}
	if c.DefaultShell == "" {
		c.DefaultShell = DefaultShell
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// validate checks configuration invariants after defaults are applied.
func (c *Config) validate() error {
	if !filepath.IsAbs(c.SocketPath) {
		return ErrSocketPathRelative
	}
	if !filepath.IsAbs(c.DefaultShell) {
		return ErrShellRelative
	}
	return nil
}
