package sink

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureStdout(t *testing.T) (read func() string) {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	t.Cleanup(func() {
		os.Stdout = orig
		_ = r.Close()
		_ = w.Close()
	})
	return func() string {
		_ = w.Close()
		data, _ := io.ReadAll(r)
		return string(data)
	}
}

func TestSink_DefaultsToStdout(t *testing.T) {
	read := captureStdout(t)

	var s Sink
	require.NoError(t, s.WriteLines([]string{"cargo::rerun-if-changed=build.rs"}))
	assert.Equal(t, "cargo::rerun-if-changed=build.rs\n", read())
}

func TestSink_SetAndReset(t *testing.T) {
	read := captureStdout(t)

	var buf bytes.Buffer
	s := New(nil)
	s.Set(&buf)
	_, err := s.Write([]byte("captured\n"))
	require.NoError(t, err)
	assert.Equal(t, "captured\n", buf.String())

	buf.Reset()
	s.Reset()
	_, err = s.Write([]byte("stdout\n"))
	require.NoError(t, err)

	assert.Empty(t, buf.String(), "capture must not receive bytes after Reset")
	assert.Equal(t, "stdout\n", read())
}

func TestSink_Swap(t *testing.T) {
	var first, second bytes.Buffer
	s := New(&first)

	restore := s.Swap(&second)
	require.NoError(t, s.WriteLines([]string{"a"}))
	restore()
	require.NoError(t, s.WriteLines([]string{"b"}))

	assert.Equal(t, "a\n", second.String())
	assert.Equal(t, "b\n", first.String())
	assert.Same(t, &first, s.Writer())
}

func TestSink_LastSetWins(t *testing.T) {
	var a, b bytes.Buffer
	s := New(nil)
	s.Set(&a)
	s.Set(&b)
	require.NoError(t, s.WriteLines([]string{"x"}))
	assert.Empty(t, a.String())
	assert.Equal(t, "x\n", b.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestSink_WriteErrorPropagates(t *testing.T) {
	s := New(failingWriter{})
	assert.EqualError(t, s.WriteLines([]string{"x"}), "disk full")
	_, err := s.Write([]byte("x"))
	assert.Error(t, err)
}

func TestSink_EmptyGroupWritesNothing(t *testing.T) {
	s := New(failingWriter{})
	assert.NoError(t, s.WriteLines(nil))
}

// countingWriter records each Write call separately to detect interleaving.
type countingWriter struct {
	mu     sync.Mutex
	writes []string
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, string(p))
	return len(p), nil
}

func TestSink_GroupsAreNotInterleaved(t *testing.T) {
	cw := &countingWriter{}
	s := New(cw)

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			id := strconv.Itoa(g)
			for i := 0; i < 50; i++ {
				_ = s.WriteLines([]string{"begin " + id, "end " + id})
			}
		}(g)
	}
	wg.Wait()

	require.Len(t, cw.writes, 16*50)
	for _, w := range cw.writes {
		lines := strings.Split(strings.TrimSuffix(w, "\n"), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, strings.TrimPrefix(lines[0], "begin "), strings.TrimPrefix(lines[1], "end "))
	}
}
