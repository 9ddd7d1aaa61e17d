// Package config defines the roster service configuration.
package config

import (
	"fmt"
	"time"

	"github.com/jonesrussell/roster/internal/database"
	"github.com/jonesrussell/roster/internal/extraction"
	infraconfig "github.com/jonesrussell/roster/internal/infrastructure/config"
	"github.com/jonesrussell/roster/internal/infrastructure/logger"
	"github.com/jonesrussell/roster/internal/infrastructure/profiling"
	infraredis "github.com/jonesrussell/roster/internal/infrastructure/redis"
)

// Default service configuration values.
const (
	defaultServiceName    = "roster"
	defaultServiceVersion = "dev"
	defaultServicePort    = 8090
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
)

// Default database configuration values.
const (
	defaultDBDriver = database.DriverSQLite
	defaultDBDSN    = "roster.db"
)

// Default auth and crawler values.
const (
	defaultTokenTTL     = 24 * time.Hour
	defaultHistoryLimit = 20
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig     `yaml:"service"`
	Database  DatabaseConfig    `yaml:"database"`
	Crawler   CrawlerConfig     `yaml:"crawler"`
	Auth      AuthConfig        `yaml:"auth"`
	Redis     infraredis.Config `yaml:"redis"`
	Logging   logger.Config     `yaml:"logging"`
	Profiling profiling.Config  `yaml:"profiling"`
}

// ServiceConfig holds service identity and HTTP settings.
type ServiceConfig struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Port        int      `env:"ROSTER_PORT"         yaml:"port"`
	Debug       bool     `env:"APP_DEBUG"           yaml:"debug"`
	CORSOrigins []string `env:"ROSTER_CORS_ORIGINS" yaml:"cors_origins"`
}

// DatabaseConfig selects the store dialect and connection.
type DatabaseConfig struct {
	Driver          string        `env:"ROSTER_DATABASE_DRIVER" yaml:"driver"`
	DSN             string        `env:"ROSTER_DATABASE_DSN"    yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_connections"`
	MaxIdleConns    int           `yaml:"max_idle_connections"`
	ConnMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// CrawlerConfig holds extraction settings plus the optional schedule.
type CrawlerConfig struct {
	extraction.Config `yaml:",inline"`

	// Schedule is a cron expression; empty disables scheduled runs.
	Schedule     string `env:"ROSTER_CRAWL_SCHEDULE" yaml:"schedule"`
	RunOnStart   bool   `env:"ROSTER_CRAWL_ON_START" yaml:"run_on_start"`
	HistoryLimit int    `yaml:"history_limit"`
}

// AuthConfig holds the shared-password settings. Auth is off when Password is empty.
type AuthConfig struct {
	Password  string        `env:"ROSTER_AUTH_PASSWORD" yaml:"password"`
	JWTSecret string        `env:"AUTH_JWT_SECRET"      yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// Enabled reports whether the API requires a token.
func (a AuthConfig) Enabled() bool {
	return a.Password != ""
}

// Load loads configuration from a YAML file, applies defaults, then env overrides.
func Load(path string) (*Config, error) {
	cfg, loadErr := infraconfig.LoadWithDefaults(path, SetDefaults)
	if loadErr != nil {
		return nil, fmt.Errorf("load config: %w", loadErr)
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return cfg, nil
}

// DatabaseSettings converts the section into connection settings.
func (c *Config) DatabaseSettings() database.Config {
	return database.Config{
		Driver:          c.Database.Driver,
		DSN:             c.Database.DSN,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := infraconfig.ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}

	if err := infraconfig.ValidateOneOf("database.driver", c.Database.Driver,
		database.DriverSQLite, database.DriverPostgres, database.DriverPgx); err != nil {
		return err
	}
	if c.Database.Driver != database.DriverSQLite {
		if err := infraconfig.ValidateRequired("database.dsn", c.Database.DSN); err != nil {
			return err
		}
	}

	if err := c.Crawler.Validate(); err != nil {
		return &infraconfig.ValidationError{Field: "crawler.start_url", Message: err.Error()}
	}

	if c.Auth.Enabled() && c.Auth.JWTSecret == "" {
		return &infraconfig.ValidationError{Field: "auth.jwt_secret", Message: "is required when auth.password is set"}
	}

	if err := infraconfig.ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}

	return infraconfig.ValidateOneOf("logging.format", c.Logging.Format, "json", "console")
}

// SetDefaults applies default values to all configuration sections.
func SetDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	setCrawlerDefaults(&cfg.Crawler)
	setAuthDefaults(&cfg.Auth)
	setLoggingDefaults(&cfg.Logging)
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}

	if s.Version == "" {
		s.Version = defaultServiceVersion
	}

	if s.Port == 0 {
		s.Port = defaultServicePort
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Driver == "" {
		d.Driver = defaultDBDriver
	}

	if d.DSN == "" && d.Driver == database.DriverSQLite {
		d.DSN = defaultDBDSN
	}
}

func setCrawlerDefaults(c *CrawlerConfig) {
	c.SetDefaults()

	if c.HistoryLimit == 0 {
		c.HistoryLimit = defaultHistoryLimit
	}
}

func setAuthDefaults(a *AuthConfig) {
	if a.TokenTTL == 0 {
		a.TokenTTL = defaultTokenTTL
	}
}

func setLoggingDefaults(l *logger.Config) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}

	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}
