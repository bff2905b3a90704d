package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/eventc/internal/config"
	"github.com/roach88/eventc/internal/logger"
	"github.com/roach88/eventc/internal/telemetry"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	// Catalogs are extra CUE event catalogs registered after the built-ins.
	Catalogs []string

	// Populated by the root pre-run.
	Config *config.Config
	Logger *slog.Logger

	shutdown telemetry.Shutdown
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the eventc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "eventc",
		Short: "eventc - event script compiler",
		Long: `Compile visual-script event trees into stack VM assembly.

Each event in a script is lowered through its registered definition:
arguments are staged in scratch locals, pushed last first, and the
native is called with the operand stack left balanced.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.shutdown == nil {
				return nil
			}
			return opts.shutdown(cmd.Context())
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file")
	cmd.PersistentFlags().StringArrayVar(&opts.Catalogs, "events", nil, "extra CUE event catalog (repeatable)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))

	return cmd
}

// setup loads configuration, installs the logger and starts tracing.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	o.Config = cfg
	o.Logger = logger.Init(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

	shutdown, err := telemetry.Setup(cmd.Context(), cfg.Telemetry)
	if err != nil {
		o.Logger.Warn("tracing disabled", "error", err)
	}
	o.shutdown = shutdown
	return nil
}

// settings returns the loaded configuration, or defaults when a command runs
// without the root pre-run (as in tests).
func (o *RootOptions) settings() *config.Config {
	if o.Config == nil {
		return config.Default()
	}
	return o.Config
}

func (o *RootOptions) log() *slog.Logger {
	if o.Logger == nil {
		return logger.Discard()
	}
	return o.Logger
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

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
