package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceLogAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "traces.json")
	log := NewTraceLog(path)

	require.NoError(t, log.Append("run_started", map[string]string{"query": "q"}))
	require.NoError(t, log.Append("summary_built", nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []TraceEntry
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "run_started", entries[0].Stage)
	assert.Equal(t, "summary_built", entries[1].Stage)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestTraceLogDisabled(t *testing.T) {
	assert.NoError(t, NewTraceLog("").Append("stage", nil))
}

func TestTraceLogReplacesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	log := NewTraceLog(path)
	require.NoError(t, log.Append("stage", nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []TraceEntry
	require.NoError(t, json.Unmarshal(raw, &entries))
	assert.Len(t, entries, 1)
}

func TestTraceLogConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.json")
	log := NewTraceLog(path)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, log.Append("stage", nil))
		}()
	}
	wg.Wait()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []TraceEntry
	require.NoError(t, json.Unmarshal(raw, &entries))
	assert.Len(t, entries, 10)
}
