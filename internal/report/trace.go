package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"adinsight/internal/errors"
)

// TraceEntry is one observability record for a pipeline stage.
type TraceEntry struct {
	Stage     string      `json:"stage"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// TraceLog appends JSON trace entries to a single file holding a JSON array.
// Safe for concurrent use within one process.
type TraceLog struct {
	mu   sync.Mutex
	path string
}

// NewTraceLog creates a trace log writing to path. An empty path disables
// tracing.
func NewTraceLog(path string) *TraceLog {
	return &TraceLog{path: path}
}

// Append adds one entry. A disabled log is a no-op; a corrupt existing file
// is replaced rather than failing the run.
func (t *TraceLog) Append(stage string, payload interface{}) error {
	if t == nil || t.path == "" {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var entries []TraceEntry
	if raw, err := os.ReadFile(t.path); err == nil {
		if json.Unmarshal(raw, &entries) != nil {
			entries = nil
		}
	}
	entries = append(entries, TraceEntry{
		Stage:     stage,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})

	if dir := filepath.Dir(t.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create trace dir %s", dir)
		}
	}
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal trace entries")
	}
	return errors.Wrap(os.WriteFile(t.path, raw, 0o644), "write trace file")
}
