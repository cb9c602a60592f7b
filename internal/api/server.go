// Package api serves run ledger queries and on-demand scoring over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/bookvalue/internal/config"
	"github.com/sells-group/bookvalue/internal/monitoring"
	"github.com/sells-group/bookvalue/internal/pipeline"
	"github.com/sells-group/bookvalue/internal/store"
)

// maxScoreBody caps POST /score request bodies.
const maxScoreBody = 32 << 20

// Runner runs one scoring batch.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input) (*pipeline.Result, error)
}

// Server holds the handler dependencies. store may be nil when the run
// ledger is disabled.
type Server struct {
	store  store.RunStore
	stats  *monitoring.Collector
	runner Runner
	output config.OutputConfig

	// scoreMu serializes runs so pool file rewrites do not interleave.
	scoreMu sync.Mutex
}

// NewServer creates a Server.
func NewServer(st store.RunStore, runner Runner, output config.OutputConfig) *Server {
	s := &Server{store: st, runner: runner, output: output}
	if st != nil {
		s.stats = monitoring.NewCollector(st)
	}
	return s
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.handleListRuns)
		r.Get("/{id}", s.handleGetRun)
		r.Get("/{id}/books", s.handleListBooks)
	})
	r.Get("/stats", s.handleStats)
	r.Get("/pool", s.handlePool)
	r.Post("/score", s.handleScore)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
