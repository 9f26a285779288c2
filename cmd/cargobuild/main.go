package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(DefaultConfig(), nil).Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

// newRootCmd assembles the command tree. primary, when non-nil, receives the
// instructions instead of the configured stream.
func newRootCmd(config *Config, primary io.Writer) *cobra.Command {
	c := &cli{cfg: config, primary: primary}

	rootCmd := &cobra.Command{
		Use:   "cargobuild",
		Short: "Emit cargo build-script instructions",
		Long: `cargobuild prints cargo build-script instructions so that helper programs and
shell scripts run from build.rs can talk to cargo without hand-formatting lines.

Examples:
  # Rerun the build script when the wrapper header changes
  cargobuild rerun-if-changed wrapper.h

  # Link a static library found in ./native
  cargobuild link-search --kind native ./native
  cargobuild link-lib static=foo

  # Emit everything listed under [directives] in a config file
  cargobuild apply --config build.toml

  # Record emitted lines and inspect them later
  cargobuild --journal.enable cfg has_foo
  cargobuild history`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogging(cmd); err != nil {
				return err
			}
			if err := config.LoadFromViper(cmd); err != nil {
				return err
			}
			return config.Validate()
		},
	}

	config.SetupFlags(rootCmd)
	rootCmd.AddCommand(c.instructionCommands()...)
	rootCmd.AddCommand(c.applyCommand(), c.historyCommand(), c.configCommand())
	return rootCmd
}

// setupLogging installs a text handler on stderr; stdout belongs to cargo.
func setupLogging(cmd *cobra.Command) error {
	name, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}
