// Package clickhouse forwards emitted instructions to a ClickHouse table so
// build-script output from many CI runs can be queried in one place.
package clickhouse

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/loykin/cargobuild/cmd/cargobuild/forward/common"
)

type Forwarder struct {
	batcher *common.Batcher
	conn    ch.Conn
	table   string
	meta    common.Meta
}

// options builds connection options, supporting the HTTP and native protocols.
func options(cfg Config) (ch.Options, error) {
	auth := ch.Auth{Username: cfg.User, Password: cfg.Password, Database: cfg.Database}
	if !strings.Contains(cfg.Addr, "://") {
		return ch.Options{Addr: []string{cfg.Addr}, Auth: auth}, nil
	}
	u, err := url.Parse(cfg.Addr)
	if err != nil {
		return ch.Options{}, fmt.Errorf("invalid clickhouse addr: %w", err)
	}
	opts := ch.Options{Addr: []string{u.Host}, Protocol: ch.HTTP, Auth: auth}
	if u.Scheme == "https" {
		opts.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}

// New connects, ensures the table exists and starts the batching loop.
func New(cfg Config, meta common.Meta, o common.Options) (common.Forwarder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}
	table := cfg.fullTable()
	if err := runMigrations(&opts, table); err != nil {
		return nil, err
	}
	conn, err := ch.Open(&opts)
	if err != nil {
		return nil, err
	}
	f := &Forwarder{
		batcher: common.NewBatcher(o.BatchSize, o.BatchInterval, o.Include, o.Exclude, "clickhouse"),
		conn:    conn,
		table:   table,
		meta:    meta,
	}
	f.batcher.Start(f.flush)
	return f, nil
}

func (f *Forwarder) Enqueue(line string) { f.batcher.Enqueue(line) }

func (f *Forwarder) Stop() error {
	f.batcher.Stop()
	return f.conn.Close()
}

func (f *Forwarder) flush(lines []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	batch, err := f.conn.PrepareBatch(ctx, "INSERT INTO "+f.table+" (ts, host, package, run_id, kind, line, labels)")
	if err != nil {
		return err
	}
	now := time.Now()
	for _, ln := range lines {
		if err := batch.Append(now, f.meta.Host, f.meta.Package, f.meta.RunID, common.Kind(ln), ln, labels(f.meta.Labels)); err != nil {
			return err
		}
	}
	return batch.Send()
}

func labels(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
