// Package config loads the settings shared by hosts and tools: where the
// device registry lives, which loading strategy to use, and how to log.
//
// Values come from built-in defaults, then an optional YAML file, then
// CWASIO_* environment variables:
//
//	registry:
//	  root: /etc/cwASIO
//	  classes: /var/lib/cwASIO/clsid
//	loader:
//	  strategy: auto     # auto, symbol, activation
//	logging:
//	  level: info        # debug, info, warn, error
//	  format: text       # text, json
//	  output: stderr     # stdout, stderr, discard
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvRegistryRoot = "CWASIO_REGISTRY_ROOT"
	EnvClassRoot    = "CWASIO_CLASS_ROOT"
	EnvLoader       = "CWASIO_LOADER"
	EnvLogLevel     = "CWASIO_LOG_LEVEL"
)

// Config is the root configuration.
type Config struct {
	Registry RegistryConfig `yaml:"registry"`
	Loader   LoaderConfig   `yaml:"loader"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// RegistryConfig locates the device registry and class registrations.
type RegistryConfig struct {
	Root    string `yaml:"root"`
	Classes string `yaml:"classes"`
}

// LoaderConfig selects the loading strategy.
type LoaderConfig struct {
	Strategy string `yaml:"strategy"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads path on top of the defaults and applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Registry: RegistryConfig{
			Root:    "/etc/cwASIO",
			Classes: "/var/lib/cwASIO/clsid",
		},
		Loader: LoaderConfig{
			Strategy: "auto",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvRegistryRoot); v != "" {
		cfg.Registry.Root = v
	}
	if v := os.Getenv(EnvClassRoot); v != "" {
		cfg.Registry.Classes = v
	}
	if v := os.Getenv(EnvLoader); v != "" {
		cfg.Loader.Strategy = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if c.Registry.Root == "" {
		return fmt.Errorf("registry.root is required")
	}

	switch strings.ToLower(c.Loader.Strategy) {
	case "auto", "symbol", "activation":
	default:
		return fmt.Errorf("loader.strategy must be auto, symbol or activation, got %q", c.Loader.Strategy)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not a level", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	switch strings.ToLower(c.Logging.Output) {
	case "stdout", "stderr", "discard":
	default:
		return fmt.Errorf("logging.output must be stdout, stderr or discard, got %q", c.Logging.Output)
	}
	return nil
}
