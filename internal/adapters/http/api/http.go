// Package api is the radar HTTP surface: JSON handlers over the service,
// routed with gorilla/mux.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/okian/radar/pkg/logger"
)

const (
	defaultLimit = 10
	maxBodyBytes = 1 << 20
)

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	AggregationDependencies
	EventDependencies
	LeaderboardDependencies
	RankDependencies
	RecommendationDependencies
	SceneDependencies
	EntityDependencies
	MomentumDependencies
	HealthDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler         *HealthHandler
	statsHandler          *StatsHandler
	aggregationHandler    *AggregationHandler
	eventsHandler         *EventsHandler
	leaderboardHandler    *LeaderboardHandler
	rankHandler           *RankHandler
	recommendationHandler *RecommendationHandler
	sceneHandler          *SceneHandler
	entityHandler         *EntityHandler
	momentumHandler       *MomentumHandler
	logger                logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger handlers use for 5xx responses.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(deps)
	s.aggregationHandler = NewAggregationHandler(deps, s.logger)
	s.eventsHandler = NewEventsHandler(deps, s.logger)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.logger)
	s.rankHandler = NewRankHandler(deps, s.logger)
	s.recommendationHandler = NewRecommendationHandler(deps, s.logger)
	s.sceneHandler = NewSceneHandler(deps, s.logger)
	s.entityHandler = NewEntityHandler(deps, s.logger)
	s.momentumHandler = NewMomentumHandler(deps)
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r *mux.Router) {
	if r == nil {
		panic("router is nil")
	}
	r.Use(MetricsMiddleware)

	r.HandleFunc("/healthz", s.healthHandler.HandleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.healthHandler.MetricsHandler()).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.statsHandler.HandleStats).Methods(http.MethodGet)

	r.HandleFunc("/entities", s.entityHandler.HandleList).Methods(http.MethodGet)
	r.HandleFunc("/entities", s.entityHandler.HandleRegister).Methods(http.MethodPost)
	r.HandleFunc("/entities/{id}", s.entityHandler.HandleGet).Methods(http.MethodGet)
	r.HandleFunc("/entities/{id}/signals", s.rankHandler.HandleGetSignals).Methods(http.MethodGet)
	r.HandleFunc("/entities/{id}/history", s.rankHandler.HandleHistory).Methods(http.MethodGet)
	r.HandleFunc("/entities/{id}/aggregate", s.aggregationHandler.HandleAggregate).Methods(http.MethodPost)
	r.HandleFunc("/entities/{id}/enqueue", s.aggregationHandler.HandleEnqueue).Methods(http.MethodPost)
	r.HandleFunc("/entities/{id}/ingest", s.eventsHandler.HandleIngest).Methods(http.MethodPost)
	r.HandleFunc("/entities/{id}/events", s.eventsHandler.HandleList).Methods(http.MethodGet)
	r.HandleFunc("/aggregate/batch", s.aggregationHandler.HandleBatch).Methods(http.MethodPost)
	r.HandleFunc("/events", s.eventsHandler.HandlePostEvent).Methods(http.MethodPost)

	r.HandleFunc("/top", s.leaderboardHandler.HandleTop).Methods(http.MethodGet)

	r.HandleFunc("/workspaces/{ws}/recommendations", s.recommendationHandler.HandleList).Methods(http.MethodGet)
	r.HandleFunc("/workspaces/{ws}/recommendations/generate", s.recommendationHandler.HandleGenerate).Methods(http.MethodPost)

	r.HandleFunc("/scenes/{id}", s.sceneHandler.HandleGet).Methods(http.MethodGet)
	r.HandleFunc("/scenes/{id}/refresh", s.sceneHandler.HandleRefresh).Methods(http.MethodPost)

	r.HandleFunc("/momentum", s.momentumHandler.HandleMomentum).Methods(http.MethodPost)
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates err with statusFor. Server-side failures are
// logged since the client only sees the code.
func writeServiceError(w http.ResponseWriter, r *http.Request, log logger.Logger, op string, err error) {
	status, code, retryable := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Warn(r.Context(), "request failed", logger.String("op", op), logger.String("code", code), logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error(), Retryable: retryable})
}

// decodeBody reads a JSON body into v, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// limitParam reads ?n=, defaulting to defaultLimit.
func limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: n must be a positive integer", ErrBadRequest)
	}
	return n, nil
}
