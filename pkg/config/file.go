package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileOverlay mirrors Config's fields that operators may prefer to pin in
// a checked-in file rather than environment variables. Zero-value fields
// are left alone; only fields present in the YAML document override cfg.
type fileOverlay struct {
	ValidatorEndpoint *string `yaml:"validator_endpoint"`
	DatabaseURL       *string `yaml:"database_url"`
	ServiceName       *string `yaml:"service_name"`
	LogLevel          *string `yaml:"log_level"`
	MetricsAddr       *string `yaml:"metrics_addr"`
}

// ApplyFile overlays configuration read from a YAML file on top of cfg.
// Environment variables are read first by Load; this lets an operator's
// checked-in file take precedence over env defaults without requiring
// every setting to be piped through the environment.
func (c *Config) ApplyFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if overlay.ValidatorEndpoint != nil {
		c.ValidatorEndpoint = *overlay.ValidatorEndpoint
	}
	if overlay.DatabaseURL != nil {
		c.DatabaseURL = *overlay.DatabaseURL
	}
	if overlay.ServiceName != nil {
		c.ServiceName = *overlay.ServiceName
	}
	if overlay.LogLevel != nil {
		c.LogLevel = *overlay.LogLevel
	}
	if overlay.MetricsAddr != nil {
		c.MetricsAddr = *overlay.MetricsAddr
	}
	return nil
}
