package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/loykin/cargobuild/internal/journal"
	"github.com/loykin/cargobuild/pkg/instruction"
	"github.com/mattn/go-isatty"
	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"
)

// cli carries the loaded configuration to every subcommand.
type cli struct {
	cfg *Config
	// primary overrides output.stream; tests point it at a buffer.
	primary io.Writer
}

// emit writes lines produced by build through a freshly opened output.
func (c *cli) emit(build func() ([]instruction.Line, error)) (err error) {
	lines, err := build()
	if err != nil {
		return err
	}
	if c.primary == nil && c.cfg.Output.Stream == "stdout" && isatty.IsTerminal(os.Stdout.Fd()) {
		slog.Warn("stdout is a terminal; cargo only reads instructions printed by a running build script")
	}
	o, err := openOutput(c.cfg, c.primary)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := o.Close(); cerr != nil {
			slog.Error("failed to close output", "error", cerr)
		}
	}()
	return o.emitter.Write(lines)
}

func (c *cli) instructionCommands() []*cobra.Command {
	var target, searchKind string

	linkArg := &cobra.Command{
		Use:   "link-arg FLAG...",
		Short: "Pass flags to the linker",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.emit(func() ([]instruction.Line, error) {
				return instruction.LinkArg(instruction.LinkTarget(target), args...)
			})
		},
	}
	linkArg.Flags().StringVar(&target, "target", "", "Restrict to cdylib, bins, tests, examples or benches")

	linkSearch := &cobra.Command{
		Use:   "link-search PATH...",
		Short: "Add library search paths",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.emit(func() ([]instruction.Line, error) {
				return instruction.LinkSearch(instruction.SearchKind(searchKind), args...)
			})
		},
	}
	linkSearch.Flags().StringVar(&searchKind, "kind", "", "Search kind: dependency, crate, native, framework or all")

	return []*cobra.Command{
		{
			Use:   "rerun-if-changed PATH...",
			Short: "Rerun the build script when a file or directory changes",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.emit(func() ([]instruction.Line, error) { return instruction.RerunIfChanged(args...) })
			},
		},
		{
			Use:   "rerun-if-env-changed NAME...",
			Short: "Rerun the build script when an environment variable changes",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.emit(func() ([]instruction.Line, error) { return instruction.RerunIfEnvChanged(args...) })
			},
		},
		linkArg,
		{
			Use:   "link-arg-bin BIN FLAG...",
			Short: "Pass flags to the linker for one binary",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.emit(func() ([]instruction.Line, error) { return instruction.LinkArgBin(args[0], args[1:]...) })
			},
		},
		{
			Use:   "link-lib LIB...",
			Short: "Link native libraries ([KIND[:MODIFIERS]=]NAME[:RENAME])",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.emit(func() ([]instruction.Line, error) {
					libs := make([]instruction.Library, 0, len(args))
					for _, a := range args {
						lib, err := instruction.ParseLibrary(a)
						if err != nil {
							return nil, err
						}
						libs = append(libs, lib)
					}
					return instruction.LinkLib(libs...)
				})
			},
		},
		linkSearch,
		{
			Use:   "flags FLAG...",
			Short: "Pass -l and -L flags to the compiler",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.emit(func() ([]instruction.Line, error) { return instruction.Flags(args...) })
			},
		},
		{
			Use:   "cfg NAME [VALUE]",
			Short: "Enable a cfg option",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.emit(func() ([]instruction.Line, error) {
					if len(args) == 2 {
						return instruction.CfgValue(args[0], args[1])
					}
					return instruction.Cfg(args[0])
				})
			},
		},
		{
			Use:   "check-cfg NAME [VALUE...]",
			Short: "Declare an expected cfg option and its values",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.emit(func() ([]instruction.Line, error) { return instruction.CheckCfg(args[0], args[1:]...) })
			},
		},
		{
			Use:   "env NAME VALUE",
			Short: "Set a compile-time environment variable",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.emit(func() ([]instruction.Line, error) { return instruction.Env(args[0], args[1]) })
			},
		},
		{
			Use:   "warning MSG...",
			Short: "Show a build warning",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.emit(func() ([]instruction.Line, error) { return instruction.Warning(strings.Join(args, " ")), nil })
			},
		},
		{
			Use:   "error MSG...",
			Short: "Report a build error; cargo fails the build once the script exits",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.emit(func() ([]instruction.Line, error) { return instruction.Error(strings.Join(args, " ")), nil })
			},
		},
		{
			Use:   "metadata KEY VALUE",
			Short: "Publish metadata to dependent build scripts",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.emit(func() ([]instruction.Line, error) { return instruction.Metadata(args[0], args[1]) })
			},
		},
	}
}

func (c *cli) applyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Emit every directive from the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.emit(c.cfg.Directives.Lines)
		},
	}
}

func (c *cli) historyCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [RUN]",
		Short: "List journal runs, or the lines emitted by one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Journal.Path == "" {
				return fmt.Errorf("journal.path must be set")
			}
			j, err := journal.NewSQLiteJournal(c.cfg.Journal.Path)
			if err != nil {
				return fmt.Errorf("failed to open journal: %w", err)
			}
			defer func() { _ = j.Close() }()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				entries, err := j.Lines(args[0])
				if err != nil {
					return err
				}
				for _, e := range entries {
					if _, err := fmt.Fprintln(out, e.Line); err != nil {
						return err
					}
				}
				return nil
			}

			runs, err := j.Runs(limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "RUN\tPACKAGE\tSTARTED")
			for _, r := range runs {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Package, r.StartedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func (c *cli) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shown := *c.cfg
			shown.Forward.ClickHouse.Password = mask(shown.Forward.ClickHouse.Password)
			shown.Forward.OpenSearch.Password = mask(shown.Forward.OpenSearch.Password)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), litter.Sdump(shown))
			return err
		},
	}
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}
