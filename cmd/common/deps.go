// Package common provides shared utilities for command implementations.
package common

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"github.com/jonesrussell/roster/internal/bootstrap"
	"github.com/jonesrussell/roster/internal/config"
	"github.com/jonesrussell/roster/internal/infrastructure/logger"
)

// Global flag names.
const (
	FlagConfig = "config"
	FlagDebug  = "debug"
)

// CommandDeps holds the dependencies every command needs.
type CommandDeps struct {
	Config *config.Config
	Logger logger.Logger
}

// NewCommandDeps loads configuration from the --config flag (or ROSTER_CONFIG) and creates the
// logger.
func NewCommandDeps() (*CommandDeps, error) {
	cfg, err := bootstrap.LoadConfig(viper.GetString(FlagConfig), viper.GetBool(FlagDebug))
	if err != nil {
		return nil, err
	}

	log, err := bootstrap.CreateLogger(cfg)
	if err != nil {
		return nil, err
	}

	return &CommandDeps{Config: cfg, Logger: log}, nil
}

// OpenApp builds the application for a one-shot command. The caller must Close it.
func (d *CommandDeps) OpenApp(ctx context.Context) (*bootstrap.App, error) {
	app, err := bootstrap.NewApp(ctx, d.Config, d.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return app, nil
}

// SignalContext returns ctx cancelled on SIGINT or SIGTERM.
func SignalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
