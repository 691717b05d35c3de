package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands. After PersistentPreRunE
// runs, the fields hold the merged flag, environment and config file values.
type RootOptions struct {
	ConfigFile string
	Verbose    bool
	Format     string // "json" | "text"
	Layer      string // semantic layer file
	History    string // compilation log DSN, empty disables logging
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the semsql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "semsql",
		Short: "semsql - semantic layer to SQL compiler",
		Long: `Compile structured analytics queries into SQL.

A query names business entities (metrics and attributes). The semantic layer
maps each entity to a column or expression and declares the foreign keys
between tables. semsql resolves the entities, finds the joins connecting their
tables and emits one deterministic SELECT statement.

Configuration is read from flags, SEMSQL_* environment variables and an
optional semsql.yaml, in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default: semsql.yaml discovered upward)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Layer, "layer", "l", "", "semantic layer file (.yaml, .json, .cue)")
	cmd.PersistentFlags().StringVar(&opts.History, "history", "", "compilation log: SQLite path or postgres:// URL")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewEntitiesCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve merges configuration sources into opts and installs the logger.
func (opts *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, path, err := LoadConfig(opts.ConfigFile, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig+": loading configuration", err)
	}
	opts.Layer = cfg.Layer
	opts.History = cfg.History
	opts.Format = cfg.Format
	opts.Verbose = cfg.Verbose

	if !isValidFormat(opts.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
	}

	configureLogging(cmd.ErrOrStderr(), opts.Verbose)
	if path != "" {
		slog.Debug("configuration loaded", "path", path)
	}
	return nil
}

// configureLogging installs a text slog handler on w at Info, or Debug when
// verbose.
func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
