package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/roster/internal/infrastructure/logger"
	"github.com/jonesrussell/roster/internal/infrastructure/profiling"
	"github.com/jonesrussell/roster/internal/job"
)

// Start loads configuration and runs the HTTP service until SIGINT or SIGTERM.
func Start(ctx context.Context, configPath string, debug bool) error {
	cfg, configErr := LoadConfig(configPath, debug)
	if configErr != nil {
		return fmt.Errorf("config: %w", configErr)
	}

	log, logErr := CreateLogger(cfg)
	if logErr != nil {
		return fmt.Errorf("logger: %w", logErr)
	}
	defer func() { _ = log.Sync() }()

	profiler, profErr := profiling.Start(cfg.Profiling, cfg.Service.Name, cfg.Service.Version, log)
	if profErr != nil {
		log.Warn("Profiling disabled", logger.Error(profErr))
	}
	defer func() { _ = profiler.Stop() }()

	log.Info("Starting roster service",
		logger.String("name", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, appErr := NewApp(ctx, cfg, log)
	if appErr != nil {
		return appErr
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			log.Error("Failed to close resources", logger.Error(closeErr))
		}
	}()

	if serveErr := Serve(ctx, app); serveErr != nil {
		log.Error("Server error", logger.Error(serveErr))
		return fmt.Errorf("server: %w", serveErr)
	}

	log.Info("Roster service stopped")
	return nil
}

// Serve runs the HTTP server and, when configured, the crawl scheduler until ctx is done.
func Serve(ctx context.Context, app *App) error {
	var scheduler *job.Scheduler
	if schedule := app.Config.Crawler.Schedule; schedule != "" {
		var err error
		if scheduler, err = job.NewScheduler(schedule, app.Runner, app.Log); err != nil {
			return err
		}
	}

	server := SetupHTTPServer(app)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})
	if scheduler != nil {
		g.Go(func() error {
			return scheduler.Run(gctx)
		})
	}

	if app.Config.Crawler.RunOnStart {
		if _, err := app.Runner.Trigger(gctx, job.TriggerStartup); err != nil && !errors.Is(err, job.ErrAlreadyRunning) {
			app.Log.Error("Failed to start crawl on startup", logger.Error(err))
		}
	}

	return g.Wait()
}
