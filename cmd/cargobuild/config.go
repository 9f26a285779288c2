package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/loykin/cargobuild/cmd/cargobuild/forward/clickhouse"
	"github.com/loykin/cargobuild/cmd/cargobuild/forward/opensearch"
	cmdmetrics "github.com/loykin/cargobuild/cmd/cargobuild/metrics"
	"github.com/loykin/cargobuild/cmd/cargobuild/tee"
	"github.com/loykin/cargobuild/pkg/instruction"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// OutputConfig selects where instructions go and how they are spelled.
type OutputConfig struct {
	Stream      string `mapstructure:"stream"`       // stdout or stderr
	Syntax      string `mapstructure:"syntax"`       // auto, modern or legacy
	RustVersion string `mapstructure:"rust-version"` // package MSRV used by syntax=auto
}

// JournalConfig controls the SQLite history of emitted lines.
type JournalConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

type ForwardConfig struct {
	Type          string            `mapstructure:"type"` // "" (disabled), "clickhouse", "opensearch"
	Include       []string          `mapstructure:"include"`
	Exclude       []string          `mapstructure:"exclude"`
	BatchSize     int               `mapstructure:"batch-size"`
	BatchInterval time.Duration     `mapstructure:"batch-interval"`
	Host          string            `mapstructure:"host"`   // override host; default os.Hostname()
	Labels        map[string]string `mapstructure:"labels"` // optional key-value labels

	ClickHouse clickhouse.Config `mapstructure:"clickhouse"`
	OpenSearch opensearch.Config `mapstructure:"opensearch"`
}

// Config holds all configuration options for the cargobuild command.
type Config struct {
	// Optional config file path (flag/env only)
	ConfigFile string
	// Package name recorded by the journal and forwarders; defaults to CARGO_PKG_NAME
	Package    string            `mapstructure:"package"`
	Output     OutputConfig      `mapstructure:"output"`
	Tee        tee.Config        `mapstructure:"tee"`
	Journal    JournalConfig     `mapstructure:"journal"`
	Forward    ForwardConfig     `mapstructure:"forward"`
	Metrics    cmdmetrics.Config `mapstructure:"metrics"`
	Directives Directives        `mapstructure:"directives"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Package: os.Getenv("CARGO_PKG_NAME"),
		Output: OutputConfig{
			Stream:      "stdout",
			Syntax:      "auto",
			RustVersion: os.Getenv("CARGO_PKG_RUST_VERSION"),
		},
		Tee: tee.Config{MaxSize: 10, MaxBackups: 3, MaxAge: 7},
		Journal: JournalConfig{
			Enable: false,
			Path:   "cargobuild.db",
		},
		Forward: ForwardConfig{
			Include:       []string{},
			Exclude:       []string{},
			BatchSize:     200,
			BatchInterval: 2 * time.Second,
			Labels:        map[string]string{},
		},
	}
}

// flagKeys maps short flag names onto their nested config keys.
var flagKeys = map[string]string{
	"stream":       "output.stream",
	"syntax":       "output.syntax",
	"rust-version": "output.rust-version",
}

// SetupFlags adds the global flags to cmd as persistent flags.
func (c *Config) SetupFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&c.ConfigFile, "config", c.ConfigFile, "Path to config file (yaml/json/toml)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")

	f.StringVar(&c.Package, "package", c.Package, "Package name recorded in the journal and forwarded records")
	f.StringVar(&c.Output.Stream, "stream", c.Output.Stream, "Stream that receives instructions (stdout or stderr)")
	f.StringVar(&c.Output.Syntax, "syntax", c.Output.Syntax, "Instruction syntax (auto, modern or legacy)")
	f.StringVar(&c.Output.RustVersion, "rust-version", c.Output.RustVersion, "Minimum Rust version of the package, used when syntax is auto")

	f.StringVar(&c.Tee.Path, "tee.path", c.Tee.Path, "Also append emitted lines to this rotating file")
	f.BoolVar(&c.Journal.Enable, "journal.enable", c.Journal.Enable, "Record emitted lines in a SQLite journal")
	f.StringVar(&c.Journal.Path, "journal.path", c.Journal.Path, "Path to the journal SQLite DB")
	f.StringVar(&c.Metrics.Textfile, "metrics.textfile", c.Metrics.Textfile, "Write Prometheus metrics to this file on exit")

	// Forwarding is configured through the config file or CARGOBUILD_FORWARD_* variables.
}

// LoadFromViper binds flags to viper, reads file/env, and populates the Config fields via mapstructure.
func (c *Config) LoadFromViper(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix("CARGOBUILD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Persistent flags are merged into Flags() only once cobra parses them.
	flags := cmd.Flags()
	flags.AddFlagSet(cmd.PersistentFlags())
	if err := v.BindPFlags(flags); err != nil {
		return err
	}
	for name, key := range flagKeys {
		if fl := flags.Lookup(name); fl != nil {
			if err := v.BindPFlag(key, fl); err != nil {
				return err
			}
		}
	}

	// --config flag or CARGOBUILD_CONFIG env; no auto-defaults
	if c.ConfigFile == "" {
		c.ConfigFile = v.GetString("config")
	}
	if c.ConfigFile != "" {
		v.SetConfigFile(c.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v.Unmarshal(c)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Output.Stream {
	case "stdout", "stderr":
	default:
		return fmt.Errorf("output.stream must be 'stdout' or 'stderr'")
	}
	if _, err := c.syntax(); err != nil {
		return err
	}
	if err := c.Tee.Validate(); err != nil {
		return err
	}
	if c.Journal.Enable && c.Journal.Path == "" {
		return fmt.Errorf("journal.path must be set when journal.enable is true")
	}

	switch c.Forward.Type {
	case "", "clickhouse", "opensearch":
	default:
		return fmt.Errorf("invalid forward.type: %s", c.Forward.Type)
	}
	if c.Forward.Type != "" {
		if c.Forward.BatchSize <= 0 {
			return fmt.Errorf("forward.batch-size must be > 0")
		}
		if c.Forward.BatchInterval <= 0 {
			return fmt.Errorf("forward.batch-interval must be > 0")
		}
		switch c.Forward.Type {
		case "clickhouse":
			if err := c.Forward.ClickHouse.Validate(); err != nil {
				return err
			}
		case "opensearch":
			if err := c.Forward.OpenSearch.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// syntax resolves output.syntax, consulting the rust version for "auto".
func (c *Config) syntax() (instruction.Syntax, error) {
	switch strings.ToLower(c.Output.Syntax) {
	case "", "auto":
		return instruction.SyntaxFor(c.Output.RustVersion), nil
	case "modern":
		return instruction.Modern, nil
	case "legacy":
		return instruction.Legacy, nil
	default:
		return instruction.Modern, fmt.Errorf("invalid output.syntax: %s", c.Output.Syntax)
	}
}
