// Package config provides configuration management for reg using Viper.
//
// The config file supplies defaults for flags the user does not pass on
// the command line; flags always win. It lives at
// $XDG_CONFIG_HOME/reg/config.yaml and every key can also be set through
// a REG_* environment variable (e.g. REG_OUTPUT, REG_LOG_FORMAT).
package config

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// AppName is the application name used for config file naming.
const AppName = "reg"

// Config represents the top-level configuration structure.
type Config struct {
	// Output is a default path for the -o flag. Empty means no file output.
	Output string `mapstructure:"output" yaml:"output"`
	// LogFormat is the default --log-format value ("text" or "json").
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	// CaseSensitive is the default for the -c flag.
	CaseSensitive bool `mapstructure:"case_sensitive" yaml:"case_sensitive"`
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".")
	viper.AddConfigPath(filepath.Join(xdg.ConfigHome, AppName))

	// Environment variable support
	viper.SetEnvPrefix("REG")
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("output", "")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("case_sensitive", false)
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations.
// Returns the loaded configuration or default values if no file is found (when path is empty).
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// If user specified a path, this is an error
			if path != "" {
				return nil, fmt.Errorf("config file not found at %s: %w", path, err)
			}
			// Otherwise (implicit load), it's fine to use defaults
		} else {
			// Real read error (parsing, permissions, etc)
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case "", "text", "json":
		return nil
	default:
		return fmt.Errorf("invalid log_format %q (valid: text, json)", c.LogFormat)
	}
}
