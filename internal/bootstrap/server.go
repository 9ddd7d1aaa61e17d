package bootstrap

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/roster/internal/api"
	infragin "github.com/jonesrussell/roster/internal/infrastructure/gin"
	"github.com/jonesrussell/roster/internal/infrastructure/jwt"
)

const (
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 60 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	healthCheckTimeout  = 2 * time.Second
)

// SetupHTTPServer creates the HTTP server with all handlers wired.
func SetupHTTPServer(app *App) *infragin.Server {
	cfg := app.Config

	handlers := api.Handlers{
		Contacts: api.NewContactHandler(app.Contacts, app.Log),
		Crawl:    api.NewCrawlHandler(app.Runner, cfg.Crawler.HistoryLimit, app.Log),
	}

	jwtSecret := ""
	if cfg.Auth.Enabled() {
		jwtSecret = cfg.Auth.JWTSecret
		handlers.Auth = api.NewAuthHandler(cfg.Auth.Password, jwt.NewManager(jwtSecret, cfg.Auth.TokenTTL), app.Log)
	}

	builder := infragin.NewServerBuilder(cfg.Service.Name, cfg.Service.Port).
		WithLogger(app.Log).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithCORSOrigins(cfg.Service.CORSOrigins).
		WithTimeouts(defaultReadTimeout, defaultWriteTimeout, defaultIdleTimeout).
		WithHealthCheck("database", infragin.PingChecker("Database", infragin.HealthStatusUnhealthy, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
			defer cancel()
			return app.DB.PingContext(ctx)
		}))

	if app.Redis != nil {
		builder = builder.WithHealthCheck("redis", infragin.PingChecker("Redis", infragin.HealthStatusDegraded, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
			defer cancel()
			return app.Redis.Ping(ctx).Err()
		}))
	}

	return builder.
		WithRoutes(func(router *gin.Engine) {
			router.GET("/metrics", gin.WrapH(app.Metrics.Handler()))
			router.Use(app.Metrics.GinMiddleware())
			api.SetupRoutes(router, handlers, jwtSecret)
		}).
		Build()
}
