package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bookvalue/internal/config"
	"github.com/sells-group/bookvalue/internal/model"
	"github.com/sells-group/bookvalue/internal/pipeline"
	"github.com/sells-group/bookvalue/internal/pool"
	"github.com/sells-group/bookvalue/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testOutput(t *testing.T) config.OutputConfig {
	dir := t.TempDir()
	return config.OutputConfig{
		Dir:      dir,
		Format:   "json",
		PoolPath: filepath.Join(dir, "observation_pool.json"),
	}
}

func do(t *testing.T, h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func sampleBooks() []model.ScoredBook {
	return []model.ScoredBook{
		{
			Record:     model.MatchedBookRecord{ID: "supply:1", Supply: &model.NormalizedBookRecord{Title: "乡土中国"}, Method: model.MatchISBN},
			FinalScore: 85,
			Tier:       model.TierHighPotential,
		},
		{
			Record:     model.MatchedBookRecord{ID: "demand:2", Demand: &model.NormalizedBookRecord{Title: "城市的胜利"}, Method: model.MatchNone},
			FinalScore: 30,
			Tier:       model.TierReading,
		},
	}
}

func TestHealth(t *testing.T) {
	h := NewServer(nil, new(mockRunner), testOutput(t)).Routes()

	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["ledger"])
}

func TestRuns_LedgerDisabled(t *testing.T) {
	h := NewServer(nil, new(mockRunner), testOutput(t)).Routes()

	for _, path := range []string{"/runs", "/runs/abc", "/runs/abc/books", "/stats"} {
		rec := do(t, h, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestRuns(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "offline")
	require.NoError(t, err)
	require.NoError(t, st.SaveScoredBooks(ctx, run.ID, sampleBooks()))
	require.NoError(t, st.CompleteRun(ctx, run.ID, model.RunStats{Scored: 2}))

	h := NewServer(st, new(mockRunner), testOutput(t)).Routes()

	rec := do(t, h, http.MethodGet, "/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode[[]model.Run](t, rec)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)

	rec = do(t, h, http.MethodGet, "/runs?status=failed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/runs?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/runs/"+run.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[model.Run](t, rec)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, 2, got.Stats.Scored)

	rec = do(t, h, http.MethodGet, "/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/runs/"+run.ID+"/books", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.ScoredBook](t, rec), 2)

	rec = do(t, h, http.MethodGet, "/runs/"+run.ID+"/books?tier=high-potential", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	books := decode[[]model.ScoredBook](t, rec)
	require.Len(t, books, 1)
	assert.Equal(t, "supply:1", books[0].Record.ID)

	rec = do(t, h, http.MethodGet, "/runs/"+run.ID+"/books?tier=legendary", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/runs/missing/books", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "offline")
	require.NoError(t, err)
	require.NoError(t, st.CompleteRun(ctx, run.ID, model.RunStats{Scored: 11, Judged: 1}))
	failed, err := st.CreateRun(ctx, "offline")
	require.NoError(t, err)
	require.NoError(t, st.FailRun(ctx, failed.ID, "boom"))

	h := NewServer(st, new(mockRunner), testOutput(t)).Routes()

	rec := do(t, h, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[map[string]any](t, rec)
	assert.EqualValues(t, 2, snap["runs_total"])
	assert.EqualValues(t, 1, snap["runs_failed"])
	assert.EqualValues(t, 11, snap["scored"])
	assert.EqualValues(t, 24, snap["lookback_hours"])

	rec = do(t, h, http.MethodGet, "/stats?hours=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode[map[string]any](t, rec)["lookback_hours"])

	rec = do(t, h, http.MethodGet, "/stats?hours=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPool(t *testing.T) {
	out := testOutput(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, pool.NewFile(out.PoolPath).Save([]model.ObservationPoolEntry{
		{RecordID: "supply:1", Reason: model.ReasonUnmatched, FirstSeen: now, LastSeen: now, SeenCount: 1},
		{RecordID: "supply:1", Reason: model.ReasonNotSelected, FirstSeen: now, LastSeen: now, SeenCount: 1},
	}))

	h := NewServer(nil, new(mockRunner), out).Routes()

	rec := do(t, h, http.MethodGet, "/pool", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.ObservationPoolEntry](t, rec), 2)

	rec = do(t, h, http.MethodGet, "/pool?reason=unmatched", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]model.ObservationPoolEntry](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ReasonUnmatched, entries[0].Reason)
}

func TestPool_Missing(t *testing.T) {
	h := NewServer(nil, new(mockRunner), testOutput(t)).Routes()

	rec := do(t, h, http.MethodGet, "/pool", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestScore(t *testing.T) {
	out := testOutput(t)
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, mock.MatchedBy(func(in pipeline.Input) bool {
		return len(in.Supply) == 1 && len(in.Demand) == 1
	})).Return(&pipeline.Result{
		RunID: "run-9",
		Books: sampleBooks(),
		Pool: []model.ObservationPoolEntry{
			{RecordID: "demand:2", Reason: model.ReasonUnmatched, SeenCount: 1},
		},
		Seen:  map[string]bool{"supply:1": true, "demand:2": true},
		Stats: model.RunStats{SupplyIn: 1, DemandIn: 1, Scored: 2},
	}, nil)

	h := NewServer(nil, runner, out).Routes()
	body := []byte(`{"supply":[{"title":"乡土中国"}],"demand":[{"title":"城市的胜利"}]}`)

	rec := do(t, h, http.MethodPost, "/score", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[map[string]any](t, rec)
	assert.Equal(t, "run-9", resp["run_id"])
	assert.Len(t, resp["books"], 2)
	require.NotNil(t, resp["artifacts"])
	assert.FileExists(t, filepath.Join(out.Dir, "books_scored.json"))

	entries, err := pool.NewFile(out.PoolPath).Load()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	runner.AssertExpectations(t)
}

func TestScore_Errors(t *testing.T) {
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, mock.MatchedBy(func(in pipeline.Input) bool { return len(in.Supply) == 0 })).
		Return(nil, pipeline.ErrEmptyInput)
	runner.On("Run", mock.Anything, mock.MatchedBy(func(in pipeline.Input) bool { return len(in.Supply) > 0 })).
		Return(nil, errors.New("judge exploded"))

	h := NewServer(nil, runner, testOutput(t)).Routes()

	rec := do(t, h, http.MethodPost, "/score", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/score", []byte(`{"supply":[],"demand":[]}`))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "both inputs are empty")

	rec = do(t, h, http.MethodPost, "/score", []byte(`{"supply":[{"title":"x"}]}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := NewServer(nil, new(mockRunner), testOutput(t)).Routes()

	req := httptest.NewRequest(http.MethodOptions, "/score", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
