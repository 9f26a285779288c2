package journal

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memJournal struct {
	Journal
	lines []string
	err   error
}

func (m *memJournal) Append(_ string, lines []string) error {
	if m.err != nil {
		return m.err
	}
	m.lines = append(m.lines, lines...)
	return nil
}

func TestWriter_SplitsLinesAcrossWrites(t *testing.T) {
	mj := &memJournal{}
	w := NewWriter(mj, "run")

	n, err := fmt.Fprint(w, "cargo::rustc-cfg=a\ncargo::rustc-")
	require.NoError(t, err)
	assert.Equal(t, len("cargo::rustc-cfg=a\ncargo::rustc-"), n)
	assert.Equal(t, []string{"cargo::rustc-cfg=a"}, mj.lines)

	_, err = fmt.Fprint(w, "cfg=b\ntail")
	require.NoError(t, err)
	assert.Equal(t, []string{"cargo::rustc-cfg=a", "cargo::rustc-cfg=b"}, mj.lines)

	require.NoError(t, w.Close())
	assert.Equal(t, []string{"cargo::rustc-cfg=a", "cargo::rustc-cfg=b", "tail"}, mj.lines)
	require.NoError(t, w.Close(), "second close has nothing pending")
}

func TestWriter_PropagatesAppendError(t *testing.T) {
	w := NewWriter(&memJournal{err: errors.New("locked")}, "run")
	_, err := w.Write([]byte("x\n"))
	assert.EqualError(t, err, "locked")
}

func TestWriter_SQLite(t *testing.T) {
	j, err := NewSQLiteJournal(filepath.Join(t.TempDir(), "w.db"))
	require.NoError(t, err)
	defer func() { _ = j.Close() }()

	run, err := j.Begin("pkg")
	require.NoError(t, err)
	w := NewWriter(j, run.ID)
	_, err = w.Write([]byte("cargo::rerun-if-changed=a\ncargo::rerun-if-changed=b\n"))
	require.NoError(t, err)

	entries, err := j.Lines(run.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "cargo::rerun-if-changed=b", entries[1].Line)
}
