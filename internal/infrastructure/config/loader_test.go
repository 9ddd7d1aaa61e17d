package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/roster/internal/infrastructure/config"
)

type testConfig struct {
	Server struct {
		Port    int           `env:"TEST_ROSTER_PORT"    yaml:"port"`
		Timeout time.Duration `env:"TEST_ROSTER_TIMEOUT" yaml:"timeout"`
	} `yaml:"server"`
	Name    string   `env:"TEST_ROSTER_NAME"    yaml:"name"`
	Debug   bool     `env:"TEST_ROSTER_DEBUG"   yaml:"debug"`
	Domains []string `env:"TEST_ROSTER_DOMAINS" yaml:"domains"`
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_ReadsYAML(t *testing.T) {
	path := writeConfig(t, "name: roster\nserver:\n  port: 8080\n  timeout: 5s\ndomains: [vorys.com]\n")

	cfg, err := config.Load[testConfig](path)
	require.NoError(t, err)

	assert.Equal(t, "roster", cfg.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
	assert.Equal(t, []string{"vorys.com"}, cfg.Domains)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "name: roster\nserver:\n  port: 8080\n")

	t.Setenv("TEST_ROSTER_PORT", "9090")
	t.Setenv("TEST_ROSTER_TIMEOUT", "2m")
	t.Setenv("TEST_ROSTER_DEBUG", "yes")
	t.Setenv("TEST_ROSTER_DOMAINS", "a.com, b.com")

	cfg, err := config.Load[testConfig](path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Server.Timeout)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"a.com", "b.com"}, cfg.Domains)
}

func TestLoad_MissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("TEST_ROSTER_NAME", "from-env")

	cfg, err := config.Load[testConfig](filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Name)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unterminated")

	_, err := config.Load[testConfig](path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadWithDefaults_EnvBeatsDefaults(t *testing.T) {
	path := writeConfig(t, "")
	t.Setenv("TEST_ROSTER_PORT", "7000")

	cfg, err := config.LoadWithDefaults(path, func(c *testConfig) {
		c.Server.Port = 8000
		c.Name = "default"
	})
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "default", cfg.Name)
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.yml", config.GetConfigPath("config.yml"))

	t.Setenv("CONFIG_PATH", "/etc/roster/config.yml")
	assert.Equal(t, "/etc/roster/config.yml", config.GetConfigPath("config.yml"))
}

func TestValidators(t *testing.T) {
	t.Parallel()

	require.NoError(t, config.ValidatePort("service.port", 8080))
	require.Error(t, config.ValidatePort("service.port", 0))
	require.NoError(t, config.ValidateLogLevel("warn"))
	require.Error(t, config.ValidateLogLevel("loud"))
	require.NoError(t, config.ValidateOneOf("database.driver", "pgx", "sqlite", "postgres", "pgx"))

	err := config.ValidateOneOf("database.driver", "mysql", "sqlite")
	var validationErr *config.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "database.driver", validationErr.Field)
}
