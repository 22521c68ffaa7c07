package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file. ${VAR} references are expanded
// from the environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}

// ApplyEnv overrides cfg with the well-known environment variables.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("NEXT_PUBLIC_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("WEATHER_API_KEY"); v != "" {
		cfg.Weather.APIKey = v
	}
	if v := os.Getenv("WEATHER_API_URL"); v != "" {
		cfg.Weather.BaseURL = v
	}
	if v := os.Getenv("AGRI_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
