package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the hitolog.yaml configuration structure.
type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Log.Level = "info"
	return cfg
}

// LoadConfig reads the config file. With an empty path the standard
// locations are searched; nil is returned when none exists.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		locations := []string{"hitolog.yaml", "hitolog.yml", ".hitolog.yaml"}
		if home, err := os.UserHomeDir(); err == nil {
			locations = append(locations, filepath.Join(home, ".hitolog", "config.yaml"))
		}
		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
		if path == "" {
			return nil, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}

	return &config, nil
}

// DefaultDBPath is the database location when neither flag, env nor
// config provides one.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "hitolog.db"
	}
	return filepath.Join(home, ".hitolog", "hitolog.db")
}
