package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/streamql/internal/compiler"
	"github.com/roach88/streamql/internal/config"
)

// RootOptions holds global flags for all commands, and the settings the
// root resolves from them before any subcommand runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Dialect    string
	Charset    string

	cfg     config.Config
	dialect compiler.Dialect
	logger  *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the streamql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "streamql",
		Short: "streamql - one query AST from three dialects",
		Long: "Compile SQL-like, DataFrame and streaming queries into a common AST,\n" +
			"render it back as SQL, and record parses for determinism replay.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd.ErrOrStderr())
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "settings file (.yaml, .yml or .cue)")
	cmd.PersistentFlags().StringVarP(&opts.Dialect, "dialect", "d", string(compiler.SQL), "query dialect (sql|dataframe|stream)")
	cmd.PersistentFlags().StringVar(&opts.Charset, "charset", "", "identifier charset (unified|lowercase), overrides the config file")

	// Add subcommands
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewFmtCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewTreeCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))

	return cmd
}

// resolve validates the global flags, loads the configuration and sets up
// logging on stderr.
func (o *RootOptions) resolve(stderr io.Writer) error {
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	o.cfg = config.Default()
	if o.ConfigPath != "" {
		cfg, err := config.Load(o.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "load config", err)
		}
		o.cfg = cfg
	}
	if o.Charset != "" {
		o.cfg.Charset = o.Charset
	}
	if _, err := o.cfg.Identifiers(); err != nil {
		return WrapExitError(ExitCommandError, "invalid charset", err)
	}

	d, err := compiler.ParseDialect(o.Dialect)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid dialect", err)
	}
	o.dialect = d

	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

// compileOptions returns the compiler options for the resolved settings.
func (o *RootOptions) compileOptions() ([]compiler.Option, error) {
	opts, err := compiler.FromConfig(o.cfg)
	if err != nil {
		return nil, err
	}
	return append(opts, compiler.WithLogger(o.logger)), nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout(), Verbose: o.Verbose}
}

// readQuery returns the query argument, or stdin when it is "-" or absent.
func readQuery(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", WrapExitError(ExitCommandError, "read stdin", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// readInput returns the contents of a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "read stdin", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read input", err)
	}
	return data, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
