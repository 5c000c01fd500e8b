package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/firedoc/internal/client"
	"github.com/roach88/firedoc/internal/config"
	"github.com/roach88/firedoc/internal/decode"
	"github.com/roach88/firedoc/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	EnvFile    string
	ProjectID  string
	Database   string
	DBPath     string

	// Clock and Revisions replace the system clock and UUIDv7 revisions.
	// Tests set them for byte-identical output.
	Clock     client.Clock
	Revisions store.RevisionGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the firedoc CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "firedoc",
		Short: "firedoc - local document cache tooling",
		Long: "Decode REST documents, cache them locally and apply writes with field " +
			"transforms (serverTimestamp, arrayUnion, arrayRemove, increment, delete).",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "dotenv file (default .env)")
	cmd.PersistentFlags().StringVar(&opts.ProjectID, "project", "", "project ID (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Database, "database", "", "database ID (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite cache path (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewDecodeCommand(opts))
	cmd.AddCommand(NewPutCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewWriteCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newFormatter builds the formatter for cmd from the global flags.
func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// loadConfig resolves the configuration, letting non-empty flags win over
// every other source.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	overrides := map[string]any{}
	if opts.ProjectID != "" {
		overrides["project_id"] = opts.ProjectID
	}
	if opts.Database != "" {
		overrides["database"] = opts.Database
	}
	if opts.DBPath != "" {
		overrides["db_path"] = opts.DBPath
	}

	return config.Load(config.LoadOptions{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
		Overrides:  overrides,
	})
}

// setupLogging installs a text slog handler on the command's stderr.
// --verbose forces debug level; otherwise the configured level applies.
func setupLogging(cmd *cobra.Command, opts *RootOptions, cfg *config.Config) *slog.Logger {
	level := cfg.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// session bundles what a command needs to talk to the local cache.
type session struct {
	cfg   *config.Config
	store *store.Store // nil for commands that never touch the cache
	db    *client.Database
}

// openSession loads config, configures logging and builds the database
// handle. The SQLite cache is opened only when withStore is set.
func openSession(cmd *cobra.Command, opts *RootOptions, f *OutputFormatter, withStore bool) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, f.Fail(ErrCodeConfig, "failed to load config", err)
	}
	logger := setupLogging(cmd, opts, cfg)

	clientOpts := []client.Option{client.WithLogger(logger)}
	if opts.Clock != nil {
		clientOpts = append(clientOpts, client.WithClock(opts.Clock))
	}

	s := &session{cfg: cfg}
	if withStore {
		var storeOpts []store.Option
		if opts.Revisions != nil {
			storeOpts = append(storeOpts, store.WithRevisionGenerator(opts.Revisions))
		}
		st, err := store.Open(cfg.DBPath, storeOpts...)
		if err != nil {
			return nil, f.Fail(ErrCodeIO, "failed to open cache", err)
		}
		f.VerboseLog("Opened cache %s", cfg.DBPath)
		s.store = st
		clientOpts = append(clientOpts, client.WithStore(st))
	}

	s.db = client.New(cfg.DatabaseID(), clientOpts...)
	return s, nil
}

// Close releases the cache, if one was opened.
func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// behavior resolves the server timestamp behavior: the flag if given,
// otherwise the configured one.
func (s *session) behavior(flag string) (client.ServerTimestampBehavior, error) {
	if flag != "" {
		return decode.ParseServerTimestampBehavior(flag)
	}
	return s.cfg.Behavior()
}
