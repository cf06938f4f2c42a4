// Package http exposes the recommendation pipeline over HTTP.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Laksh-devta/shl-recommender-go/internal/domain/entities"
	"github.com/Laksh-devta/shl-recommender-go/internal/logging"
	"github.com/Laksh-devta/shl-recommender-go/internal/metrics"
)

// Recommender is the slice of the pipeline the boundary needs.
type Recommender interface {
	Recommend(ctx context.Context, query string) ([]entities.Recommendation, error)
}

// Server is the HTTP server for the recommendation API.
type Server struct {
	recommender Recommender
	addr        string
	timeout     time.Duration
	router      chi.Router
}

// NewServer creates the server and its routes.
func NewServer(recommender Recommender, addr string, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := &Server{
		recommender: recommender,
		addr:        addr,
		timeout:     timeout,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(instrument)
	r.Use(recoverer)

	r.Post("/recommend", s.handleRecommend)
	r.Post("/query", s.handleRecommend) // original route, same contract
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.router = r
	return s
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until ctx is cancelled, then drains connections.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  s.timeout,
		WriteTimeout: s.timeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("server shutdown")
		}
	}()

	logging.Info().Str("addr", s.addr).Msg("server starting")
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type recommendRequest struct {
	Query string `json:"query"`
}

type recommendResponse struct {
	RecommendedAssessments []entities.Recommendation `json:"recommended_assessments"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleRecommend maps pipeline outcomes onto the response contract. Only the
// threshold/join step may produce "no results" as data; the boundary turns
// that into a distinguished 404, never into an empty 200.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecommendOutcomes.WithLabelValues("invalid_query").Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Query missing"})
		return
	}

	recs, err := s.recommender.Recommend(r.Context(), req.Query)
	switch {
	case err == nil:
		metrics.RecommendOutcomes.WithLabelValues("ok").Inc()
		writeJSON(w, http.StatusOK, recommendResponse{RecommendedAssessments: recs})
	case errors.Is(err, entities.ErrInvalidQuery):
		metrics.RecommendOutcomes.WithLabelValues("invalid_query").Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Query missing"})
	case errors.Is(err, entities.ErrNoRecommendations):
		metrics.RecommendOutcomes.WithLabelValues("no_results").Inc()
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no recommendations found"})
	case errors.Is(err, entities.ErrEmbedding):
		metrics.RecommendOutcomes.WithLabelValues("embedding_error").Inc()
		logging.Error().Err(err).Msg("embedding failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	case errors.Is(err, entities.ErrIndexQuery):
		metrics.RecommendOutcomes.WithLabelValues("index_error").Inc()
		logging.Error().Err(err).Msg("vector search failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	default:
		metrics.RecommendOutcomes.WithLabelValues("internal_error").Inc()
		logging.Error().Err(err).Msg("unclassified failure")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error: " + err.Error()})
	}
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("encoding response")
	}
}
