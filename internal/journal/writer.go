package journal

import (
	"bytes"
	"sync"
)

// Writer is an io.Writer that records every complete line written to it as
// an entry of one run. A trailing partial line is kept until it is completed
// or the Writer is closed.
type Writer struct {
	mu      sync.Mutex
	journal Journal
	runID   string
	partial []byte
}

// NewWriter returns a Writer appending to run runID of j.
func NewWriter(j Journal, runID string) *Writer {
	return &Writer{journal: j, runID: runID}
}

func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	data := append(w.partial, p...)
	var lines []string
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(data[:i]))
		data = data[i+1:]
	}
	w.partial = append([]byte(nil), data...)
	if err := w.journal.Append(w.runID, lines); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close records a pending partial line. It does not close the journal.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.partial) == 0 {
		return nil
	}
	line := string(w.partial)
	w.partial = nil
	return w.journal.Append(w.runID, []string{line})
}
