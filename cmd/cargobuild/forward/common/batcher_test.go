package common

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(ch <-chan string, max int, timeout time.Duration) []string {
	out := []string{}
	deadline := time.After(timeout)
	for len(out) < max {
		select {
		case s := <-ch:
			out = append(out, s)
		case <-deadline:
			return out
		}
	}
	return out
}

func TestBatcher_Enqueue_FilterAndBuffer(t *testing.T) {
	b := NewBatcher(10, 10*time.Millisecond, []string{"ok"}, []string{"drop"}, "test")
	b.Enqueue("ok-first")        // contains include
	b.Enqueue("no-include-here") // should be filtered
	b.Enqueue("ok-but-drop-tag") // contains include and exclude -> exclude wins

	got := drain(b.Ch, 3, 20*time.Millisecond)
	if len(got) != 1 || got[0] != "ok-first" {
		t.Fatalf("expected only the allowed line to be in channel, got %+v", got)
	}
}

func TestBatcher_BufferFullDrops(t *testing.T) {
	// BatchSize=1 => channel capacity = size*2 = 2
	b := NewBatcher(1, 10*time.Millisecond, nil, nil, "test")
	b.Enqueue("a")
	b.Enqueue("b")
	// This third enqueue should hit default case and be dropped
	b.Enqueue("c")

	got := drain(b.Ch, 10, 20*time.Millisecond)
	if len(got) != 2 {
		t.Fatalf("expected 2 items in buffer, got %d: %+v", len(got), got)
	}
	if !(got[0] == "a" && got[1] == "b") {
		t.Fatalf("unexpected channel content: %+v", got)
	}
}

type recorder struct {
	mu      sync.Mutex
	batches [][]string
	fails   int
}

func (r *recorder) flush(lines []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fails > 0 {
		r.fails--
		return errors.New("unavailable")
	}
	r.batches = append(r.batches, append([]string(nil), lines...))
	return nil
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out
}

func TestBatcher_FlushOnBatchSize(t *testing.T) {
	rec := &recorder{}
	b := NewBatcher(2, time.Hour, nil, nil, "test")
	b.Start(rec.flush)
	defer b.Stop()

	b.Enqueue("line1")
	b.Enqueue("line2")

	assert.Eventually(t, func() bool { return len(rec.all()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"line1", "line2"}, rec.all())
}

func TestBatcher_StopFlushesQueuedLines(t *testing.T) {
	rec := &recorder{}
	b := NewBatcher(100, time.Hour, nil, nil, "test")
	b.Start(rec.flush)

	for _, l := range []string{"a", "b", "c"} {
		b.Enqueue(l)
	}
	b.Stop()
	b.Stop() // idempotent

	assert.Equal(t, []string{"a", "b", "c"}, rec.all())
}

func TestBatcher_RetriesFailedFlush(t *testing.T) {
	rec := &recorder{fails: 2}
	b := NewBatcher(1, time.Hour, nil, nil, "test")
	b.Start(rec.flush)

	b.Enqueue("retry-me")
	b.Stop()

	require.Equal(t, []string{"retry-me"}, rec.all())
}

func TestBatcher_PartialFailureRetriesOnlyRemaining(t *testing.T) {
	var (
		mu    sync.Mutex
		calls [][]string
	)
	flush := func(lines []string) error {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, append([]string(nil), lines...))
		if len(calls) == 1 {
			return &PartialError{Remaining: []string{"b"}, Err: errors.New("1 item rejected")}
		}
		return nil
	}
	b := NewBatcher(10, time.Hour, nil, nil, "test")
	b.Start(flush)
	b.Enqueue("a")
	b.Enqueue("b")
	b.Enqueue("c")
	b.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"b"}}, calls)
}

func TestBatcher_PartialFailureWithNothingLeftIsNotRetried(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	flush := func(lines []string) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return &PartialError{Err: errors.New("mapping error")}
	}
	b := NewBatcher(10, time.Hour, nil, nil, "test")
	b.Start(flush)
	b.Enqueue("a")
	b.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestLineWriter_SplitsLines(t *testing.T) {
	rec := &recorder{}
	b := NewBatcher(100, time.Hour, nil, nil, "test")
	b.Start(rec.flush)
	w := NewLineWriter(b)

	n, err := w.Write([]byte("cargo::rustc-cfg=a\ncargo::rustc"))
	require.NoError(t, err)
	assert.Equal(t, len("cargo::rustc-cfg=a\ncargo::rustc"), n)
	_, err = w.Write([]byte("-cfg=b\n"))
	require.NoError(t, err)
	b.Stop()

	assert.Equal(t, []string{"cargo::rustc-cfg=a", "cargo::rustc-cfg=b"}, rec.all())
}
