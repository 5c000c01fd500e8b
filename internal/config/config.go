// Package config loads firedoc settings from defaults, an optional YAML file,
// a .env file and FIREDOC_* environment variables, and validates the result
// against an embedded CUE schema.
//
// Precedence, highest first: overrides, environment, .env file, config file,
// defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/roach88/firedoc/internal/decode"
	"github.com/roach88/firedoc/internal/model"
	"github.com/roach88/firedoc/internal/status"
)

//go:embed schema.cue
var schemaCUE string

// EnvPrefix prefixes every environment variable, e.g. FIREDOC_PROJECT_ID.
const EnvPrefix = "FIREDOC"

const (
	defaultDatabase         = model.DefaultDatabase
	defaultServerTimestamps = string(decode.BehaviorNone)
	defaultDBPath           = "firedoc.db"
	defaultLogLevel         = "info"
	defaultEnvFile          = ".env"
)

// Config holds resolved settings.
type Config struct {
	ProjectID        string `mapstructure:"project_id" json:"project_id"`
	Database         string `mapstructure:"database" json:"database"`
	ServerTimestamps string `mapstructure:"server_timestamps" json:"server_timestamps"`
	DBPath           string `mapstructure:"db_path" json:"db_path"`
	LogLevel         string `mapstructure:"log_level" json:"log_level"`
}

// LoadOptions controls where settings are read from.
type LoadOptions struct {
	// ConfigFile is an optional YAML file. Empty means none.
	ConfigFile string

	// EnvFile is read when present. Empty means ".env".
	EnvFile string

	// Overrides take precedence over every other source, keyed by setting
	// name (e.g. "project_id").
	Overrides map[string]any
}

// Load resolves and validates the configuration.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	v.SetDefault("project_id", "")
	v.SetDefault("database", defaultDatabase)
	v.SetDefault("server_timestamps", defaultServerTimestamps)
	v.SetDefault("db_path", defaultDBPath)
	v.SetDefault("log_level", defaultLogLevel)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = defaultEnvFile
	}
	if err := loadEnvFile(v, envFile); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFile applies FIREDOC_* entries of a .env file that are not already
// set in the process environment. A missing file is not an error.
func loadEnvFile(v *viper.Viper, path string) error {
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read env file %s: %w", path, err)
	}

	for name, value := range values {
		key, ok := strings.CutPrefix(name, EnvPrefix+"_")
		if !ok {
			continue
		}
		if _, set := os.LookupEnv(name); set {
			continue
		}
		v.Set(strings.ToLower(key), value)
	}
	return nil
}

// Validate checks c against the embedded CUE schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Unify(ctx.Encode(c)).Validate(cue.Concrete(true)); err != nil {
		return status.InvalidArgument("invalid config: %v", err)
	}
	return nil
}

// DatabaseID returns the configured database identity.
func (c *Config) DatabaseID() model.DatabaseID {
	return model.NewDatabaseID(c.ProjectID, c.Database)
}

// Behavior returns the configured server timestamp behavior.
func (c *Config) Behavior() (decode.ServerTimestampBehavior, error) {
	return decode.ParseServerTimestampBehavior(c.ServerTimestamps)
}

// SlogLevel maps LogLevel to a slog.Level. Unknown names map to Info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
