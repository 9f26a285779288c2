package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/loykin/cargobuild"
	"github.com/loykin/cargobuild/cmd/cargobuild/forward/clickhouse"
	"github.com/loykin/cargobuild/cmd/cargobuild/forward/common"
	"github.com/loykin/cargobuild/cmd/cargobuild/forward/opensearch"
	cmdmetrics "github.com/loykin/cargobuild/cmd/cargobuild/metrics"
	"github.com/loykin/cargobuild/cmd/cargobuild/tee"
	"github.com/loykin/cargobuild/internal/journal"
	"github.com/loykin/cargobuild/pkg/emit"
	"github.com/loykin/cargobuild/pkg/metrics"
	"github.com/loykin/cargobuild/pkg/sink"
	"github.com/prometheus/client_golang/prometheus"
)

// Forwarder is the common forwarder interface from subpackages.
type Forwarder = common.Forwarder

// buildForwarder constructs and starts a forwarder based on Config. Returns nil when forwarding is disabled.
func buildForwarder(cfg *Config, runID string) (Forwarder, error) {
	if cfg.Forward.Type == "" {
		return nil, nil
	}
	host := cfg.Forward.Host
	if host == "" {
		if h, err := os.Hostname(); err == nil {
			host = h
		}
	}
	meta := common.Meta{Host: host, Package: cfg.Package, RunID: runID, Labels: cfg.Forward.Labels}
	opts := common.Options{
		BatchSize:     cfg.Forward.BatchSize,
		BatchInterval: cfg.Forward.BatchInterval,
		Include:       cfg.Forward.Include,
		Exclude:       cfg.Forward.Exclude,
	}
	switch cfg.Forward.Type {
	case "clickhouse":
		return clickhouse.New(cfg.Forward.ClickHouse, meta, opts)
	case "opensearch":
		return opensearch.New(cfg.Forward.OpenSearch, meta, opts)
	default:
		return nil, fmt.Errorf("unsupported forwarder: %s", cfg.Forward.Type)
	}
}

// mirror is a secondary destination. Its failures are logged, never returned.
type mirror struct {
	name string
	w    io.Writer
}

// mirrorWriter writes to primary and copies whatever primary accepted to the mirrors.
type mirrorWriter struct {
	primary io.Writer
	mirrors []mirror
}

func (m *mirrorWriter) Write(p []byte) (int, error) {
	n, err := m.primary.Write(p)
	if n > 0 {
		for _, mr := range m.mirrors {
			if _, merr := mr.w.Write(p[:n]); merr != nil {
				slog.Error("mirror write failed", "destination", mr.name, "error", merr)
			}
		}
	}
	return n, err
}

// output is the emitter of one command invocation plus everything that must be
// released when the command finishes.
type output struct {
	emitter  *emit.Emitter
	runID    string
	journal  journal.Journal
	registry *prometheus.Registry
	textfile string
	closers  []func() error
}

// primaryStream resolves output.stream to the process stream.
func primaryStream(stream string) io.Writer {
	if stream == "stderr" {
		return os.Stderr
	}
	return os.Stdout
}

// openOutput wires the build output and its secondary destinations. primary
// overrides output.stream when non-nil.
func openOutput(cfg *Config, primary io.Writer) (_ *output, err error) {
	syntax, err := cfg.syntax()
	if err != nil {
		return nil, err
	}
	if primary == nil {
		primary = primaryStream(cfg.Output.Stream)
	}

	o := &output{registry: prometheus.NewRegistry(), textfile: cfg.Metrics.Textfile}
	defer func() {
		if err != nil {
			_ = o.Close()
		}
	}()
	if err := cargobuild.RegisterMetrics(o.registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	if err := cmdmetrics.Register(o.registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	mw := &mirrorWriter{primary: primary}

	if cfg.Tee.Enabled() {
		tw, err := tee.New(cfg.Tee)
		if err != nil {
			return nil, fmt.Errorf("failed to open tee file: %w", err)
		}
		mw.mirrors = append(mw.mirrors, mirror{name: "tee", w: tw})
		o.closers = append(o.closers, tw.Close)
	}

	if cfg.Journal.Enable {
		j, err := journal.NewSQLiteJournal(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		o.journal = j
		o.closers = append(o.closers, j.Close)
		run, err := j.Begin(cfg.Package)
		if err != nil {
			return nil, fmt.Errorf("failed to begin journal run: %w", err)
		}
		o.runID = run.ID
		jw := journal.NewWriter(j, run.ID)
		mw.mirrors = append(mw.mirrors, mirror{name: "journal", w: jw})
		o.closers = append(o.closers, jw.Close)
	} else {
		o.runID = uuid.NewString()
	}

	fwd, err := buildForwarder(cfg, o.runID)
	if err != nil {
		return nil, fmt.Errorf("failed to start forwarder: %w", err)
	}
	if fwd != nil {
		mw.mirrors = append(mw.mirrors, mirror{name: cfg.Forward.Type, w: common.NewLineWriter(fwd)})
		o.closers = append(o.closers, fwd.Stop)
	}

	o.emitter = emit.New(sink.New(mw), emit.WithSyntax(syntax), emit.WithObserver(cargobuild.MetricsObserver()))
	slog.Debug("output ready", "stream", cfg.Output.Stream, "syntax", syntax.String(), "run_id", o.runID, "mirrors", len(mw.mirrors))
	return o, nil
}

// Close releases destinations in reverse order and writes the metrics textfile.
func (o *output) Close() error {
	var errs []error
	for i := len(o.closers) - 1; i >= 0; i-- {
		if err := o.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	o.closers = nil
	if err := metrics.WriteTextfile(o.textfile, o.registry); err != nil {
		errs = append(errs, fmt.Errorf("failed to write metrics textfile: %w", err))
	}
	return errors.Join(errs...)
}
