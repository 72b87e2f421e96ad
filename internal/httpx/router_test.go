package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adinsight/app"
	"adinsight/domain/adset"
	"adinsight/domain/core"
	"adinsight/internal/config"
	"adinsight/internal/errors"
	"adinsight/internal/testkit"
	"adinsight/ports"
)

type stubSource struct{ table *adset.Table }

func (s *stubSource) Load() (*adset.Table, error) { return s.table, nil }

type memoryRepo struct {
	saved []*ports.RunRecord
}

func (m *memoryRepo) SaveRun(_ context.Context, run *ports.RunRecord) error {
	m.saved = append(m.saved, run)
	return nil
}

func (m *memoryRepo) GetRun(_ context.Context, id core.RunID) (*ports.RunRecord, error) {
	for _, r := range m.saved {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.InvalidInput("run not found")
}

func (m *memoryRepo) ListRuns(_ context.Context, limit int) ([]*ports.RunRecord, error) {
	if limit > len(m.saved) {
		limit = len(m.saved)
	}
	return m.saved[:limit], nil
}

func testHandler(t *testing.T, repo ports.RunRepository) http.Handler {
	t.Helper()
	cfg := config.Default()
	cfg.LogsPath = ""
	cfg.OutDir = t.TempDir()
	source := &stubSource{table: testkit.Generate(testkit.Config{Rows: 80, Seed: 42})}
	orch := app.NewOrchestrator(&cfg, source, nil, repo)
	return NewRouter(orch, repo, cfg.OutDir)
}

func TestHealthEndpoints(t *testing.T) {
	h := testHandler(t, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := testHandler(t, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPostRun(t *testing.T) {
	repo := &memoryRepo{}
	h := testHandler(t, repo)

	body := bytes.NewBufferString(`{"query":"Why did ROAS drop?"}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", body))
	require.Equal(t, http.StatusCreated, rec.Code)

	var result app.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Why did ROAS drop?", result.Query)
	assert.NotEmpty(t, result.Hypotheses)
	require.Len(t, repo.saved, 1)

	// artifacts land in the configured output directory
	path, ok := result.Paths["report_md"]
	require.True(t, ok)
	assert.Equal(t, "report.md", filepath.Base(path))
}

func TestPostRunInvalidBody(t *testing.T) {
	h := testHandler(t, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", bytes.NewBufferString("{broken")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRunsWithoutStorage(t *testing.T) {
	h := testHandler(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/some-id", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRunByID(t *testing.T) {
	repo := &memoryRepo{}
	h := testHandler(t, repo)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", bytes.NewBufferString(`{}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.saved, 1)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+repo.saved[0].ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var run ports.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, repo.saved[0].ID, run.ID)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/absent", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
