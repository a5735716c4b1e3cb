package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete zotdav configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (ZOTDAV_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values
//
// Store Configuration Pattern:
// Each store backend defines its own option set. The Store section carries a
// Type selector plus one map per backend; only the map matching the selected
// type is decoded (see factories.go).
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains the gateway HTTP listener settings
	Server ServerConfig `mapstructure:"server"`

	// Gateway contains the WebDAV translation layer settings
	Gateway GatewayConfig `mapstructure:"gateway"`

	// Store specifies the blob store backend and backend-specific options
	Store StoreConfig `mapstructure:"store"`

	// Metrics controls the optional Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// ServerConfig contains the gateway HTTP listener settings.
type ServerConfig struct {
	// Port is the TCP port the gateway listens on
	Port int `mapstructure:"port" validate:"required,gt=0,lte=65535"`

	// ReadTimeout bounds reading a full request, body included
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"required,gt=0"`

	// WriteTimeout bounds writing a full response
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"required,gt=0"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

// GatewayConfig contains the WebDAV translation layer settings.
type GatewayConfig struct {
	// Prefix is the namespace prefix delimiting the served URL path space.
	// Must start and end with "/". Requests outside it never reach the store.
	Prefix string `mapstructure:"prefix" validate:"required,startswith=/"`

	// Username and Password are the expected Basic credentials.
	// Every request is authenticated against them, statelessly.
	Username string `mapstructure:"username" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`

	// Realm is advertised in the Basic challenge
	Realm string `mapstructure:"realm" validate:"required"`
}

// StoreConfig specifies the blob store backend.
//
// The Type field determines which backend is used. Only the corresponding
// backend-specific section is decoded.
type StoreConfig struct {
	// Type specifies which blob store backend to use
	// Valid values: memory, s3, badger
	Type string `mapstructure:"type" validate:"required,oneof=memory s3 badger"`

	// S3 contains S3-specific options, used when Type = "s3"
	S3 map[string]any `mapstructure:"s3"`

	// Badger contains BadgerDB-specific options, used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`

	// Memory has no options; the key exists so a config file can spell
	// out the selection explicitly
	Memory map[string]any `mapstructure:"memory"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns metrics collection and the /metrics listener on
	Enabled bool `mapstructure:"enabled"`

	// Port is the TCP port the metrics server listens on
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns the loaded and validated configuration.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures environment variable support and config file search.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the ZOTDAV_ prefix with underscores.
	// Example: ZOTDAV_GATEWAY_PASSWORD=secret
	v.SetEnvPrefix("ZOTDAV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is acceptable - defaults and environment
		// variables still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "zotdav")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "zotdav")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
