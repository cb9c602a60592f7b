package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bookvalue/internal/model"
	"github.com/sells-group/bookvalue/internal/pipeline"
	"github.com/sells-group/bookvalue/internal/pool"
	"github.com/sells-group/bookvalue/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"ledger": s.store != nil,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	filter := model.RunFilter{Status: model.RunStatus(r.URL.Query().Get("status"))}
	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	var tier *model.Tier
	if name := r.URL.Query().Get("tier"); name != "" {
		t, err := model.ParseTier(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		tier = &t
	}

	books, err := s.store.ListScoredBooks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	if tier != nil {
		filtered := books[:0]
		for _, b := range books {
			if b.Tier == *tier {
				filtered = append(filtered, b)
			}
		}
		books = filtered
	}
	writeJSON(w, http.StatusOK, books)
}

// defaultStatsHours is the /stats lookback when none is given.
const defaultStatsHours = 24

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	hours := defaultStatsHours
	if r.URL.Query().Get("hours") != "" {
		var err error
		if hours, err = queryInt(r, "hours"); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	snap, err := s.stats.Collect(r.Context(), hours)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	if s.output.PoolPath == "" {
		writeError(w, http.StatusServiceUnavailable, "observation pool is disabled")
		return
	}
	entries, err := pool.NewFile(s.output.PoolPath).Load()
	if err != nil {
		zap.L().Error("api: load pool", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load observation pool")
		return
	}

	out := []model.ObservationPoolEntry{}
	reason := model.ReasonCode(r.URL.Query().Get("reason"))
	for _, e := range entries {
		if reason == "" || e.Reason == reason {
			out = append(out, e)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type scoreRequest struct {
	Supply []model.RawSupplyRecord `json:"supply"`
	Demand []model.RawDemandRecord `json:"demand"`
}

type scoreResponse struct {
	RunID     string                       `json:"run_id"`
	Stats     model.RunStats               `json:"stats"`
	Books     []model.ScoredBook           `json:"books"`
	Pool      []model.ObservationPoolEntry `json:"pool"`
	Artifacts *pipeline.Artifacts          `json:"artifacts,omitempty"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScoreBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.scoreMu.Lock()
	defer s.scoreMu.Unlock()

	res, err := s.runner.Run(r.Context(), pipeline.Input{Supply: req.Supply, Demand: req.Demand})
	switch {
	case errors.Is(err, pipeline.ErrEmptyInput), errors.Is(err, pipeline.ErrNoUsableRecords):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		zap.L().Error("api: score run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "scoring run failed")
		return
	}

	resp := scoreResponse{RunID: res.RunID, Stats: res.Stats, Books: res.Books, Pool: res.Pool}
	if s.output.Dir != "" {
		art, err := pipeline.Publish(res, s.output)
		if err != nil {
			zap.L().Error("api: publish run", zap.String("run_id", res.RunID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to write run artifacts")
			return
		}
		resp.Artifacts = art
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run ledger is disabled")
		return false
	}
	return true
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	zap.L().Error("api: store query", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "run ledger query failed")
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, eris.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}
