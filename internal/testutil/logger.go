package testutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// NopLogger returns a logger that discards all output.
// Use this in tests to avoid log noise.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// LogRecorder collects JSON log lines written from any goroutine
type LogRecorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// CaptureLogger returns a debug-level JSON logger whose output can be inspected
func CaptureLogger() (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{}
	return slog.New(slog.NewJSONHandler(rec, &slog.HandlerOptions{Level: slog.LevelDebug})), rec
}

func (r *LogRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

// Entries decodes every record written so far
func (r *LogRecorder) Entries() []map[string]any {
	r.mu.Lock()
	data := bytes.Clone(r.buf.Bytes())
	r.mu.Unlock()

	var entries []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var entry map[string]any
		if json.Unmarshal(scanner.Bytes(), &entry) == nil {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Find returns the first record with the given message, or nil
func (r *LogRecorder) Find(msg string) map[string]any {
	for _, entry := range r.Entries() {
		if entry[slog.MessageKey] == msg {
			return entry
		}
	}
	return nil
}
