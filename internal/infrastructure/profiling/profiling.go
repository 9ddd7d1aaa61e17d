// Package profiling starts optional continuous profiling with Pyroscope.
package profiling

import (
	"fmt"
	"os"
	"runtime"

	"github.com/grafana/pyroscope-go"

	"github.com/jonesrussell/roster/internal/infrastructure/logger"
)

// Config controls continuous profiling. Profiling is off unless Enabled is set.
type Config struct {
	Enabled     bool   `env:"ROSTER_PROFILING_ENABLED" yaml:"enabled"`
	ServerURL   string `env:"PYROSCOPE_SERVER_URL"     yaml:"server_url"`
	Environment string `env:"PYROSCOPE_ENVIRONMENT"    yaml:"environment"`
}

const (
	defaultServerURL   = "http://pyroscope:4040"
	defaultEnvironment = "development"
)

// Profiler wraps a running Pyroscope profiler. A nil *Profiler is valid and does nothing.
type Profiler struct {
	profiler *pyroscope.Profiler
}

// Start begins profiling serviceName when cfg.Enabled is true, and returns (nil, nil) otherwise.
func Start(cfg Config, serviceName, version string, log logger.Logger) (*Profiler, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	if cfg.ServerURL == "" {
		cfg.ServerURL = defaultServerURL
	}
	if cfg.Environment == "" {
		cfg.Environment = defaultEnvironment
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	p, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: "roster." + serviceName,
		ServerAddress:   cfg.ServerURL,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
		Tags: map[string]string{
			"environment": cfg.Environment,
			"version":     version,
			"hostname":    hostname,
			"go_version":  runtime.Version(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope profiler: %w", err)
	}

	log.Info("Continuous profiling started",
		logger.String("server", cfg.ServerURL),
		logger.String("environment", cfg.Environment),
	)

	return &Profiler{profiler: p}, nil
}

// Stop flushes and stops the profiler.
func (p *Profiler) Stop() error {
	if p == nil || p.profiler == nil {
		return nil
	}
	return p.profiler.Stop()
}
