// Package bootstrap wires the roster components together and manages the service lifecycle.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/roster/internal/config"
	"github.com/jonesrussell/roster/internal/database"
	"github.com/jonesrussell/roster/internal/events"
	"github.com/jonesrussell/roster/internal/extraction"
	"github.com/jonesrussell/roster/internal/infrastructure/logger"
	infraredis "github.com/jonesrussell/roster/internal/infrastructure/redis"
	"github.com/jonesrussell/roster/internal/ingestion"
	"github.com/jonesrussell/roster/internal/job"
	"github.com/jonesrussell/roster/internal/metrics"
	"github.com/jonesrussell/roster/internal/service"
)

// App holds the wired components shared by the HTTP server and the CLI commands.
type App struct {
	Config   *config.Config
	Log      logger.Logger
	DB       *sqlx.DB
	Redis    *redis.Client
	Metrics  *metrics.Metrics
	Contacts *service.ContactService
	Runner   *job.Runner
}

// NewApp opens the store, connects the optional event stream and builds the pipeline, the job
// runner and the contact service.
func NewApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	db, dbErr := database.Open(ctx, cfg.DatabaseSettings())
	if dbErr != nil {
		return nil, fmt.Errorf("database: %w", dbErr)
	}
	log.Info("Database connection established", logger.String("driver", cfg.Database.Driver))

	app := &App{
		Config:  cfg,
		Log:     log,
		DB:      db,
		Metrics: metrics.New(),
	}

	redisClient, redisErr := infraredis.NewClient(cfg.Redis)
	switch {
	case redisErr == nil:
		app.Redis = redisClient
		log.Info("Redis connected, publishing events", logger.String("stream", events.StreamName))
	case errors.Is(redisErr, infraredis.ErrEmptyAddress):
		log.Info("Redis not configured, events disabled")
	default:
		log.Warn("Redis unavailable, events disabled", logger.Error(redisErr))
	}

	contactRepo := database.NewContactRepository(db)
	runRepo := database.NewRunRepository(db)

	pipeline := ingestion.NewPipeline(contactRepo, log, ingestion.WithRecorder(app.Metrics))
	source := extraction.NewJob(cfg.Crawler.Config, log)

	runnerOpts := []job.Option{job.WithObserver(app.Metrics)}
	contactOpts := []service.Option{service.WithMutationObserver(app.Metrics)}
	if publisher := events.NewPublisher(app.Redis, log); publisher != nil {
		runnerOpts = append(runnerOpts, job.WithEvents(publisher))
		contactOpts = append(contactOpts, service.WithEvents(publisher))
	}

	app.Runner = job.NewRunner(source, pipeline, runRepo, log, runnerOpts...)
	app.Contacts = service.NewContactService(contactRepo, log, contactOpts...)

	return app, nil
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
