// Package sink holds the destination build instructions are written to.
//
// A Sink is a guarded cell around an io.Writer. It defaults to the process's
// standard output, which is where cargo reads build-script instructions from,
// and can be swapped at any time for capturing or logging.
package sink

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Sink is a swappable, mutex-guarded io.Writer. The zero value writes to os.Stdout.
type Sink struct {
	mu sync.Mutex
	w  io.Writer // nil means os.Stdout
}

// New returns a sink writing to w, or to standard output when w is nil.
func New(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Set installs w as the destination for all subsequent writes. Data buffered
// by the previous destination stays its own responsibility. A nil w resets.
func (s *Sink) Set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
	slog.Debug("build output redirected", "stdout", w == nil)
}

// Reset restores standard output as the destination.
func (s *Sink) Reset() { s.Set(nil) }

// Swap installs w and returns a func restoring the destination that was
// installed before. Tests use it to scope a capture:
//
//	defer out.Swap(&buf)()
func (s *Sink) Swap(w io.Writer) (restore func()) {
	s.mu.Lock()
	prev := s.w
	s.w = w
	s.mu.Unlock()
	return func() { s.Set(prev) }
}

// Writer returns the currently installed destination.
func (s *Sink) Writer() io.Writer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current()
}

// current must be called with mu held. os.Stdout is looked up on every call
// so a process that replaces os.Stdout keeps receiving the default output.
func (s *Sink) current() io.Writer {
	if s.w == nil {
		return os.Stdout
	}
	return s.w
}

// Write forwards p to the current destination.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current().Write(p)
}

// WriteLines writes every line followed by a newline with a single write
// under one lock acquisition, so a group is never interleaved with writes
// from other goroutines.
func (s *Sink) WriteLines(lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	var b strings.Builder
	for _, ln := range lines {
		b.WriteString(ln)
		b.WriteByte('\n')
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.current(), b.String())
	return err
}
