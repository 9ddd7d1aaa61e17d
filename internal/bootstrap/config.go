package bootstrap

import (
	"fmt"

	"github.com/jonesrussell/roster/internal/config"
	infraconfig "github.com/jonesrussell/roster/internal/infrastructure/config"
	"github.com/jonesrussell/roster/internal/infrastructure/logger"
)

const (
	defaultConfigPath = "config.yml"
	debugLogLevel     = "debug"
)

// LoadConfig loads and validates the configuration at path, falling back to CONFIG_PATH and then
// config.yml. debug forces debug logging and gin debug mode.
func LoadConfig(path string, debug bool) (*config.Config, error) {
	if path == "" {
		path = infraconfig.GetConfigPath(defaultConfigPath)
	}

	cfg, loadErr := config.Load(path)
	if loadErr != nil {
		return nil, fmt.Errorf("load config: %w", loadErr)
	}

	if debug {
		cfg.Service.Debug = true
		cfg.Logging.Level = debugLogLevel
	}

	return cfg, nil
}

// CreateLogger creates a structured logger for the service.
func CreateLogger(cfg *config.Config) (logger.Logger, error) {
	log, logErr := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
		OutputPaths: cfg.Logging.OutputPaths,
	})
	if logErr != nil {
		return nil, fmt.Errorf("create logger: %w", logErr)
	}

	return log.With(logger.String("service", cfg.Service.Name)), nil
}
