// Package opensearch forwards emitted instructions to an OpenSearch index via the bulk API.
package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/loykin/cargobuild/cmd/cargobuild/forward/common"
	osclient "github.com/opensearch-project/opensearch-go"
	"github.com/opensearch-project/opensearch-go/opensearchutil"
)

type Forwarder struct {
	batcher *common.Batcher
	client  *osclient.Client
	index   string
	meta    common.Meta
}

func New(cfg Config, meta common.Meta, o common.Options) (common.Forwarder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	oc := osclient.Config{Addresses: []string{cfg.URL}}
	if cfg.User != "" {
		oc.Username = cfg.User
		oc.Password = cfg.Password
	}
	cli, err := osclient.NewClient(oc)
	if err != nil {
		return nil, err
	}
	f := &Forwarder{
		batcher: common.NewBatcher(o.BatchSize, o.BatchInterval, o.Include, o.Exclude, "opensearch"),
		client:  cli,
		index:   cfg.Index,
		meta:    meta,
	}
	f.batcher.Start(f.flush)
	return f, nil
}

func (f *Forwarder) Enqueue(line string) { f.batcher.Enqueue(line) }

func (f *Forwarder) Stop() error {
	f.batcher.Stop()
	return nil
}

type document struct {
	Timestamp string            `json:"@timestamp"`
	Message   string            `json:"message"`
	Kind      string            `json:"kind,omitempty"`
	Host      string            `json:"host"`
	Package   string            `json:"package,omitempty"`
	RunID     string            `json:"run_id,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
}

func (f *Forwarder) document(line string, ts time.Time) document {
	return document{
		Timestamp: ts.UTC().Format(time.RFC3339Nano),
		Message:   line,
		Kind:      common.Kind(line),
		Host:      f.meta.Host,
		Package:   f.meta.Package,
		RunID:     f.meta.RunID,
		Labels:    f.meta.Labels,
	}
}

func (f *Forwarder) flush(lines []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	bi, err := opensearchutil.NewBulkIndexer(opensearchutil.BulkIndexerConfig{
		Client: f.client,
		Index:  f.index,
		// one worker sends the whole batch in a single _bulk request
		NumWorkers: 1,
	})
	if err != nil {
		return err
	}
	// indices of lines worth sending again; bulk workers report concurrently
	var (
		mu    sync.Mutex
		retry []int
	)
	now := time.Now()
	for i, ln := range lines {
		b, err := json.Marshal(f.document(ln, now))
		if err != nil {
			return err
		}
		err = bi.Add(ctx, opensearchutil.BulkIndexerItem{
			Action: "index",
			Body:   bytes.NewReader(b),
			OnFailure: func(ctx context.Context, item opensearchutil.BulkIndexerItem, resp opensearchutil.BulkIndexerResponseItem, err error) {
				if err != nil {
					slog.Error("opensearch bulk item error", "error", err)
				} else {
					slog.Error("opensearch bulk item failed", "status", resp.Status, "error", resp.Error)
				}
				if err != nil || retryable(resp.Status) {
					mu.Lock()
					retry = append(retry, i)
					mu.Unlock()
				}
			},
		})
		if err != nil {
			_ = bi.Close(ctx)
			mu.Lock()
			defer mu.Unlock()
			for j := i; j < len(lines); j++ {
				retry = append(retry, j)
			}
			return &common.PartialError{Remaining: pick(lines, retry), Err: err}
		}
	}
	if err := bi.Close(ctx); err != nil {
		return err
	}
	if stats := bi.Stats(); stats.NumFailed > 0 {
		mu.Lock()
		defer mu.Unlock()
		return &common.PartialError{
			Remaining: pick(lines, retry),
			Err:       fmt.Errorf("opensearch bulk failed items: %d", stats.NumFailed),
		}
	}
	return nil
}

// retryable reports whether a failed bulk item may succeed when sent again.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// pick returns lines at idx in their original order.
func pick(lines []string, idx []int) []string {
	slices.Sort(idx)
	idx = slices.Compact(idx)
	out := make([]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, lines[i])
	}
	return out
}
