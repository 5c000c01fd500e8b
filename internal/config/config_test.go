package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/firedoc/internal/decode"
	"github.com/roach88/firedoc/internal/model"
	"github.com/roach88/firedoc/internal/status"
)

// noEnvFile points at a file that does not exist so the working
// directory's .env never leaks into a test.
func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{
		EnvFile:   noEnvFile(t),
		Overrides: map[string]any{"project_id": "demo"},
	})
	require.NoError(t, err)

	assert.Equal(t, &Config{
		ProjectID:        "demo",
		Database:         model.DefaultDatabase,
		ServerTimestamps: "none",
		DBPath:           "firedoc.db",
		LogLevel:         "info",
	}, cfg)
	assert.Equal(t, model.NewDatabaseID("demo", ""), cfg.DatabaseID())
}

func TestLoad_MissingProjectFails(t *testing.T) {
	_, err := Load(LoadOptions{EnvFile: noEnvFile(t)})
	require.Error(t, err)
	assert.True(t, status.IsInvalidArgument(err))
	assert.Contains(t, err.Error(), "project_id")
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("FIREDOC_PROJECT_ID", "from-env")
	t.Setenv("FIREDOC_SERVER_TIMESTAMPS", "estimate")

	cfg, err := Load(LoadOptions{EnvFile: noEnvFile(t)})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ProjectID)

	behavior, err := cfg.Behavior()
	require.NoError(t, err)
	assert.Equal(t, decode.BehaviorEstimate, behavior)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeFile(t, "firedoc.yaml", `
project_id: from-file
database: analytics
log_level: debug
db_path: /tmp/cache.db
`)

	cfg, err := Load(LoadOptions{ConfigFile: path, EnvFile: noEnvFile(t)})
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ProjectID)
	assert.Equal(t, "analytics", cfg.Database)
	assert.Equal(t, "/tmp/cache.db", cfg.DBPath)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_Precedence(t *testing.T) {
	file := writeFile(t, "firedoc.yaml", "project_id: from-file\ndatabase: filedb\nlog_level: warn\n")
	env := writeFile(t, ".env", "FIREDOC_DATABASE=dotenv\nFIREDOC_LOG_LEVEL=error\nOTHER=ignored\n")
	t.Setenv("FIREDOC_LOG_LEVEL", "debug")

	cfg, err := Load(LoadOptions{
		ConfigFile: file,
		EnvFile:    env,
		Overrides:  map[string]any{"project_id": "flagged"},
	})
	require.NoError(t, err)

	assert.Equal(t, "flagged", cfg.ProjectID, "override beats file")
	assert.Equal(t, "dotenv", cfg.Database, ".env beats file")
	assert.Equal(t, "debug", cfg.LogLevel, "environment beats .env")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml"), EnvFile: noEnvFile(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestValidate(t *testing.T) {
	valid := Config{
		ProjectID:        "demo",
		Database:         "(default)",
		ServerTimestamps: "previous",
		DBPath:           "x.db",
		LogLevel:         "warn",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown behavior", func(c *Config) { c.ServerTimestamps = "sometimes" }},
		{"unknown log level", func(c *Config) { c.LogLevel = "trace" }},
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"bad database", func(c *Config) { c.Database = "Not Valid" }},
		{"bad project", func(c *Config) { c.ProjectID = "9lives" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, status.IsInvalidArgument(err))
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for name, want := range tests {
		c := Config{LogLevel: name}
		assert.Equal(t, want, c.SlogLevel(), name)
	}
}
