package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/roster/internal/config"
	infraconfig "github.com/jonesrussell/roster/internal/infrastructure/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, "roster", cfg.Service.Name)
	assert.Equal(t, 8090, cfg.Service.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "roster.db", cfg.Database.DSN)
	assert.Equal(t, "https://www.vorys.com/professionals-leadership", cfg.Crawler.StartURL)
	assert.Equal(t, "ul.results_list li", cfg.Crawler.Selectors.Member)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Auth.Enabled())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Crawler.Schedule)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("ROSTER_PORT", "9100")
	t.Setenv("ROSTER_DATABASE_DSN", "postgres://roster:secret@db:5432/roster?sslmode=disable")

	path := writeConfig(t, `
service:
  port: 8000
  cors_origins: ["http://localhost:8501"]
database:
  driver: pgx
crawler:
  start_url: https://example.com/people
  request_timeout: 10s
  schedule: "0 6 * * *"
  selectors:
    member: div.person
auth:
  password: hunter2
  jwt_secret: test-secret
logging:
  level: debug
  format: console
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Service.Port, "environment wins over the file")
	assert.Equal(t, []string{"http://localhost:8501"}, cfg.Service.CORSOrigins)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Contains(t, cfg.Database.DSN, "db:5432")
	assert.Equal(t, "https://example.com/people", cfg.Crawler.StartURL)
	assert.Equal(t, 10*time.Second, cfg.Crawler.RequestTimeout)
	assert.Equal(t, "div.person", cfg.Crawler.Selectors.Member)
	assert.Equal(t, "div.title a", cfg.Crawler.Selectors.Name, "unset selectors keep defaults")
	assert.Equal(t, "0 6 * * *", cfg.Crawler.Schedule)
	assert.True(t, cfg.Auth.Enabled())

	dbCfg := cfg.DatabaseSettings()
	assert.Equal(t, "pgx", dbCfg.Driver)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := func() *config.Config {
		cfg := &config.Config{}
		config.SetDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name      string
		mutate    func(*config.Config)
		wantField string
	}{
		{name: "bad port", mutate: func(c *config.Config) { c.Service.Port = 70000 }, wantField: "service.port"},
		{name: "unknown driver", mutate: func(c *config.Config) { c.Database.Driver = "mysql" }, wantField: "database.driver"},
		{
			name:      "postgres without dsn",
			mutate:    func(c *config.Config) { c.Database.Driver = "postgres"; c.Database.DSN = "" },
			wantField: "database.dsn",
		},
		{name: "relative start url", mutate: func(c *config.Config) { c.Crawler.StartURL = "/people" }, wantField: "crawler.start_url"},
		{name: "password without secret", mutate: func(c *config.Config) { c.Auth.Password = "x" }, wantField: "auth.jwt_secret"},
		{name: "bad log level", mutate: func(c *config.Config) { c.Logging.Level = "verbose" }, wantField: "logging.level"},
		{name: "bad log format", mutate: func(c *config.Config) { c.Logging.Format = "xml" }, wantField: "logging.format"},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			var vErr *infraconfig.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}
