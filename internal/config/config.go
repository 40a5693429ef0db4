// Package config handles loading and parsing application configuration.
// It supports three sources (later ones override earlier ones):
//  1. Built-in defaults (env-default:"...")
//  2. A YAML file, given by --config / -c or CONFIG_PATH
//  3. Environment variables (env:"...")
//
// A config file is optional: with no path the service starts on defaults
// plus whatever the environment provides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers understood by the application.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	HTTPServer `yaml:"http_server"`

	Storage Storage `yaml:"storage"`
}

// HTTPServer holds settings specific to the HTTP server.
// Nested under http_server: in the YAML file.
type HTTPServer struct {
	// Addr is the TCP address the server listens on.
	// All interfaces, port 8080 unless told otherwise.
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:"0.0.0.0:8080"`

	// ShutdownTimeout caps how long in-flight requests may run after
	// SIGINT/SIGTERM before the server gives up on them.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SERVER_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// Storage selects the student store backend. Both keep data in process
// memory only.
type Storage struct {
	// Driver is "memory" (map + mutex) or "sqlite" (in-memory SQLite).
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`

	// Name distinguishes in-memory SQLite databases within one process.
	Name string `yaml:"name" env:"STORAGE_NAME" env-default:"students"`
}

// Load reads the configuration. path may be empty, in which case
// CONFIG_PATH is consulted, and if that is empty too only defaults and
// environment variables are used.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg Config
	if path == "" {
		// cleanenv.ReadEnv applies env-default values and env overrides.
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("cannot read config from env: %w", err)
		}
	} else {
		// Verify the file exists before trying to read it, for a clearer
		// message than a bare "open: no such file".
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}

		// cleanenv.ReadConfig reads the YAML file, then the environment,
		// and fills anything still unset from env-default.
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite:
	default:
		return fmt.Errorf("unknown storage driver %q: want %q or %q",
			c.Storage.Driver, DriverMemory, DriverSQLite)
	}
	if c.HTTPServer.Addr == "" {
		return fmt.Errorf("http_server.address must not be empty")
	}
	return nil
}
