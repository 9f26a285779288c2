package opensearch

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/loykin/cargobuild/cmd/cargobuild/forward/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSearchForwarder_ShipsOnStop(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
	)
	// Fake _bulk endpoint that always returns success
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/_bulk") {
			b, _ := io.ReadAll(r.Body)
			mu.Lock()
			bodies = append(bodies, string(b))
			mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"took":1,"errors":false,"items":[{"index":{"status":201}}]}`))
	}))
	defer ts.Close()

	meta := common.Meta{Host: "ci-1", Package: "openssl-sys", RunID: "r1", Labels: map[string]string{"k": "v"}}
	f, err := New(Config{URL: ts.URL, Index: "cargobuild"}, meta, common.Options{BatchSize: 10, BatchInterval: time.Hour})
	require.NoError(t, err)

	f.Enqueue("cargo::rustc-link-lib=ssl")
	require.NoError(t, f.Stop())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], `"message":"cargo::rustc-link-lib=ssl"`)
	assert.Contains(t, bodies[0], `"kind":"rustc-link-lib"`)
	assert.Contains(t, bodies[0], `"package":"openssl-sys"`)
}

func TestOpenSearchForwarder_MissingConfig(t *testing.T) {
	_, err := New(Config{}, common.Meta{}, common.Options{BatchSize: 1, BatchInterval: time.Second})
	assert.Error(t, err)
}

func TestOpenSearchForwarder_PartialFailureResendsOnlyFailedItems(t *testing.T) {
	var (
		mu      sync.Mutex
		calls   int
		indexed = map[string]int{}
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/_bulk") {
			w.WriteHeader(200)
			return
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		defer mu.Unlock()
		calls++
		var items []string
		// NDJSON: action line, then document line
		lines := strings.Split(strings.TrimSpace(string(body)), "\n")
		for i := 1; i < len(lines); i += 2 {
			var doc document
			require.NoError(t, json.Unmarshal([]byte(lines[i]), &doc))
			if calls == 1 && doc.Message == "line-b" {
				items = append(items, `{"index":{"status":429,"error":{"type":"es_rejected_execution_exception","reason":"busy"}}}`)
				continue
			}
			indexed[doc.Message]++
			items = append(items, `{"index":{"status":201}}`)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"took":1,"errors":true,"items":[` + strings.Join(items, ",") + `]}`))
	}))
	defer ts.Close()

	f, err := New(Config{URL: ts.URL, Index: "cargobuild"}, common.Meta{Host: "h1"}, common.Options{BatchSize: 10, BatchInterval: time.Hour})
	require.NoError(t, err)
	f.Enqueue("line-a")
	f.Enqueue("line-b")
	require.NoError(t, f.Stop())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
	assert.Equal(t, map[string]int{"line-a": 1, "line-b": 1}, indexed)
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(429))
	assert.True(t, retryable(503))
	assert.False(t, retryable(400))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{URL: "https://search.example.com:9200", Index: "cargobuild"}.Validate())
	assert.Error(t, Config{URL: "search.example.com:9200", Index: "cargobuild"}.Validate())
	assert.Error(t, Config{URL: "http://localhost:9200", Index: "CargoBuild"}.Validate())
	assert.Error(t, Config{URL: "http://localhost:9200", Index: "a,b"}.Validate())
	assert.Error(t, Config{URL: "http://localhost:9200", Index: "cargobuild", Password: "x"}.Validate())
}

func TestDocument_NonInstructionHasNoKind(t *testing.T) {
	f := &Forwarder{meta: common.Meta{Host: "h1"}}
	d := f.document("plain output", time.Unix(0, 0))
	assert.Equal(t, "", d.Kind)
	assert.Equal(t, "1970-01-01T00:00:00Z", d.Timestamp)
	assert.Equal(t, "h1", d.Host)
}
