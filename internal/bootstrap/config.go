// Package bootstrap builds the service components from configuration. Both
// the HTTP server and the CLI commands start here.
package bootstrap

import (
	"fmt"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/config"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
)

const defaultConfigPath = "config.yml"

// LoadConfig loads and validates the configuration. An empty path falls back
// to CONFIG_PATH and then config.yml; a missing file means defaults.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.GetConfigPath(defaultConfigPath)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// CreateLogger builds the service logger.
func CreateLogger(cfg *config.Config) (logger.Logger, error) {
	logCfg := cfg.Logging
	if cfg.Service.Debug {
		logCfg.Level = "debug"
		logCfg.Development = true
	}

	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(logger.String("service", cfg.Service.Name)), nil
}
