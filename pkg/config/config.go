// Package config loads environment-driven configuration for the
// certificate-registry transaction processor and block indexer hosts,
// following the validator platform's pkg/config.Load/Validate idiom.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the cert-registry services.
type Config struct {
	// Validator transport (out of scope; parsed here only so
	// misconfiguration is caught before the transaction-processor host
	// starts serving).
	ValidatorEndpoint string

	// Database configuration for the block indexer's read model.
	DatabaseURL         string
	DatabaseMaxConns    int
	DatabaseMinConns    int
	DatabaseMaxIdleTime int // seconds
	DatabaseMaxLifetime int // seconds

	// Service identity / logging.
	ServiceName string
	LogLevel    string

	// Metrics.
	MetricsAddr string
}

// Load reads configuration from environment variables. Required
// variables have no defaults; call ValidateIndexer or ValidateProcessor
// after Load.
func Load() (*Config, error) {
	cfg := &Config{
		ValidatorEndpoint: getEnv("CERT_REGISTRY_VALIDATOR_ENDPOINT", ""),

		DatabaseURL:         getEnv("CERT_REGISTRY_DATABASE_URL", ""),
		DatabaseMaxConns:    getEnvInt("CERT_REGISTRY_DATABASE_MAX_CONNS", 25),
		DatabaseMinConns:    getEnvInt("CERT_REGISTRY_DATABASE_MIN_CONNS", 5),
		DatabaseMaxIdleTime: getEnvInt("CERT_REGISTRY_DATABASE_MAX_IDLE_TIME", 300),
		DatabaseMaxLifetime: getEnvInt("CERT_REGISTRY_DATABASE_MAX_LIFETIME", 3600),

		ServiceName: getEnv("CERT_REGISTRY_SERVICE_NAME", "cert-registry"),
		LogLevel:    getEnv("CERT_REGISTRY_LOG_LEVEL", "info"),

		MetricsAddr: getEnv("CERT_REGISTRY_METRICS_ADDR", "0.0.0.0:9090"),
	}
	return cfg, nil
}

// ValidateIndexer checks the configuration required to run the block
// indexer host.
func (c *Config) ValidateIndexer() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "CERT_REGISTRY_DATABASE_URL is required but not set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ValidateProcessor checks the configuration required to run the
// transaction-processor host.
func (c *Config) ValidateProcessor() error {
	var errs []string
	if c.ValidatorEndpoint == "" {
		errs = append(errs, "CERT_REGISTRY_VALIDATOR_ENDPOINT is required but not set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
