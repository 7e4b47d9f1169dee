package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
)

// LogCapture collects the JSON lines written by a logger under test. It is
// safe for concurrent writers.
type LogCapture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *LogCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

// String returns everything captured so far.
func (c *LogCapture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// Entries decodes the captured records in order and fails the test when a
// line is not valid JSON.
func (c *LogCapture) Entries(t testing.TB) []map[string]any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewBufferString(c.String()))
	var entries []map[string]any
	for {
		var entry map[string]any
		err := dec.Decode(&entry)
		if errors.Is(err, io.EOF) {
			return entries
		}
		if err != nil {
			t.Fatalf("malformed log output: %v", err)
		}
		entries = append(entries, entry)
	}
}

// NewCaptureLogger returns a JSON logger at level that writes into a new
// LogCapture. slog.Default is left alone.
func NewCaptureLogger(t testing.TB, level slog.Level) (*slog.Logger, *LogCapture) {
	t.Helper()
	c := &LogCapture{}
	return New(c, level), c
}
