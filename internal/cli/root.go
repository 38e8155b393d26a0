// Package cli implements the initsql command line: migrating legacy-store
// kinds into the relational store, verifying the result and seeding the
// legacy store with fixtures.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nzb155/nomulus/internal/pkg/config"
	"github.com/nzb155/nomulus/internal/pkg/telemetry"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "initsql",
		Short: "Migrate legacy-store entities into a relational store",
		Long: `initsql copies every entity of the configured kinds from the legacy store
into relational tables, using a pool of independent writers per kind. Every
row written carries the time of the transaction that wrote it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a .toml or .yaml configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewCaptureFixturesCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadConfig reads and validates the configuration, then installs the
// process logger on the command's error stream.
func loadConfig(opts *RootOptions, cmd *cobra.Command) (*config.Configuration, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.Verbose {
		cfg.Logging.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	telemetry.SetupLogging(cmd.ErrOrStderr(), cfg.Logging.Format, cfg.Logging.Verbose)
	return cfg, nil
}
