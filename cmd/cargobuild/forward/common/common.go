package common

import (
	"bytes"
	"sync"
	"time"

	"github.com/loykin/cargobuild/pkg/instruction"
)

// Forwarder specifies the minimal interface for a backend that ships emitted
// instruction lines somewhere besides the build output.
type Forwarder interface {
	Enqueue(line string)
	Stop() error
}

// LineWriter adapts a Forwarder to io.Writer, enqueueing every complete line.
// It never fails: forwarding must not break the build output.
type LineWriter struct {
	mu      sync.Mutex
	fwd     Forwarder
	partial []byte
}

// NewLineWriter returns an io.Writer feeding fwd.
func NewLineWriter(fwd Forwarder) *LineWriter {
	return &LineWriter{fwd: fwd}
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	data := append(w.partial, p...)
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		w.fwd.Enqueue(string(data[:i]))
		data = data[i+1:]
	}
	w.partial = append([]byte(nil), data...)
	return len(p), nil
}

// Options holds the batching and filtering settings shared by forwarders.
type Options struct {
	BatchSize     int
	BatchInterval time.Duration
	Include       []string
	Exclude       []string
}

// Meta describes where forwarded lines come from. It is attached to every record.
type Meta struct {
	Host    string
	Package string
	RunID   string
	Labels  map[string]string
}

// Kind returns the instruction kind of line, or "" for other output.
func Kind(line string) string {
	l, _, err := instruction.Parse(line)
	if err != nil {
		return ""
	}
	return string(l.Kind)
}

// PartialError is returned by a flush that delivered some lines. The Batcher
// retries only Remaining, so delivered lines are never sent twice. An empty
// Remaining means nothing left is worth retrying.
type PartialError struct {
	Remaining []string
	Err       error
}

func (e *PartialError) Error() string { return e.Err.Error() }

func (e *PartialError) Unwrap() error { return e.Err }
