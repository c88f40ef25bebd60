package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"setsearch/internal/index"
	"setsearch/internal/logging"
)

type apiServer struct {
	registry  *index.Registry
	telemetry *telemetry
	logger    *slog.Logger
	ready     atomic.Bool
}

func newAPIServer(registry *index.Registry, telemetry *telemetry, logger *slog.Logger) *apiServer {
	return &apiServer{
		registry:  registry,
		telemetry: telemetry,
		logger:    logger,
	}
}

// markReady flips /v1/ready once every configured source is registered.
func (s *apiServer) markReady() {
	s.ready.Store(true)
}

func (s *apiServer) routes(logRequests bool) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/indexes", s.handleIndexes)
	mux.HandleFunc("/v1/search", s.handleSearch)
	mux.HandleFunc("/v1/health", s.handleHealth)
	mux.HandleFunc("/v1/ready", s.handleReadiness)
	if s.telemetry != nil && s.telemetry.enabled {
		mux.HandleFunc("/v1/metrics", s.telemetry.handleMetrics)
	}

	handler := withJSONHeaders(mux)
	handler = withTelemetry(handler, s.telemetry, s.logger, logRequests)
	return withRequestID(handler)
}

func (s *apiServer) handleIndexes(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respond(w, http.StatusOK, map[string]any{"indexes": s.registry.List(), "timingMs": time.Since(start).Milliseconds()})
}

func (s *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	indexName := r.URL.Query().Get("index")
	if indexName == "" {
		respondError(w, http.StatusBadRequest, "index parameter is required", start)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "q parameter is required", start)
		return
	}

	matches, err := s.registry.Search(indexName, query)
	if err != nil {
		respondError(w, httpStatusForError(err), err.Error(), start)
		return
	}
	s.telemetry.recordSearch(r.Context(), indexName, matches.Len(), time.Since(start))

	respond(w, http.StatusOK, map[string]any{
		"index":     indexName,
		"query":     query,
		"totalHits": matches.Len(),
		"results":   matches.IDs(),
		"timingMs":  time.Since(start).Milliseconds(),
	})

	logging.FromContext(r.Context(), s.logger).Info("search completed", "index", indexName, "query", query, "hits", matches.Len(), "duration_ms", time.Since(start).Milliseconds())
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	respond(w, http.StatusOK, map[string]any{"status": "ok", "timingMs": time.Since(start).Milliseconds()})
}

func (s *apiServer) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	ready := s.ready.Load()
	indexes := len(s.registry.List())

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	respond(w, status, map[string]any{
		"status":   map[bool]string{true: "ready", false: "initializing"}[ready],
		"indexes":  indexes,
		"timingMs": time.Since(start).Milliseconds(),
	})
}

// serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("setsearch API listening", "listen", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), requestID)))
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func withTelemetry(next http.Handler, telemetry *telemetry, logger *slog.Logger, logRequests bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)
		duration := time.Since(start)

		telemetry.recordRequest(r.Context(), r.Method, r.URL.Path, recorder.status, duration)
		if logRequests && logger != nil {
			logging.FromContext(r.Context(), logger).Info("request completed", "method", r.Method, "path", r.URL.Path, "status", recorder.status, "duration_ms", duration.Milliseconds())
		}
	})
}

func respond(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, start time.Time) {
	respond(w, status, map[string]any{"error": message, "timingMs": time.Since(start).Milliseconds()})
}

func httpStatusForError(err error) int {
	switch {
	case errors.Is(err, index.ErrIndexNotFound):
		return http.StatusNotFound
	case errors.Is(err, index.ErrIndexExists):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
