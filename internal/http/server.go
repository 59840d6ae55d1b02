package httpserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lutefd/pokerlog/internal/auth"
	"github.com/lutefd/pokerlog/internal/domain/sessions"
	domainstats "github.com/lutefd/pokerlog/internal/domain/stats"
	"github.com/lutefd/pokerlog/internal/metrics"
	"github.com/lutefd/pokerlog/internal/tracker"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Dependencies struct {
	Tracker       *tracker.Service
	DB            Pinger
	APIToken      string
	JWTSecret     string
	DefaultUserID uuid.UUID
}

type Server struct {
	tracker *tracker.Service
	db      Pinger
	auth    auth.Middleware
	now     func() time.Time
}

type sessionDetail struct {
	sessions.Session
	RunningProfit   float64 `json:"running_profit"`
	ElapsedMs       int64   `json:"elapsed_ms"`
	Duration        string  `json:"duration"`
	HourlyRate      float64 `json:"hourly_rate"`
	HourlyRateLabel string  `json:"hourly_rate_label"`
}

type endSessionRequest struct {
	CashOut *float64 `json:"cash_out"`
}

func NewServer(deps Dependencies) *Server {
	return &Server{
		tracker: deps.Tracker,
		db:      deps.DB,
		auth:    auth.NewMiddleware(deps.APIToken, deps.DefaultUserID, deps.JWTSecret, "/healthz"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/sessions", s.handleListSessions)
	mux.HandleFunc("POST /v1/sessions", s.handleAddSession)
	mux.HandleFunc("GET /v1/sessions/live", s.handleGetLiveSession)
	mux.HandleFunc("POST /v1/sessions/live", s.handleStartLiveSession)
	mux.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("PUT /v1/sessions/{id}", s.handleUpdateSession)
	mux.HandleFunc("POST /v1/sessions/{id}/end", s.handleEndSession)
	mux.HandleFunc("GET /v1/stats/overview", s.handleOverview)

	return loggingMiddleware(s.auth.Guard(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	items, err := s.tracker.ListSessions(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": items})
}

func (s *Server) handleAddSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var payload sessions.Session
	if err := decodeJSON(w, r, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := s.tracker.AddSession(r.Context(), userID, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleStartLiveSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	payload := sessions.Draft()
	if err := decodeJSON(w, r, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := s.tracker.StartLiveSession(r.Context(), userID, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetLiveSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	live, found, err := s.tracker.LiveSession(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		http.Error(w, "no live session", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.detail(live))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	item, err := s.tracker.GetSession(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.detail(item))
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	var payload sessions.Session
	if err := decodeJSON(w, r, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	updated, err := s.tracker.UpdateSession(r.Context(), userID, id, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	var payload endSessionRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if payload.CashOut == nil {
		http.Error(w, "cash_out is required", http.StatusBadRequest)
		return
	}
	ended, err := s.tracker.EndSession(r.Context(), userID, id, *payload.CashOut)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ended)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	overview, err := s.tracker.Overview(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) detail(item sessions.Session) sessionDetail {
	now := s.now()
	elapsed := item.Elapsed(now)
	rate := domainstats.HourlyRate(item, now)
	return sessionDetail{
		Session:         item,
		RunningProfit:   item.RunningProfit(),
		ElapsedMs:       elapsed.Milliseconds(),
		Duration:        domainstats.FormatDuration(elapsed),
		HourlyRate:      rate,
		HourlyRateLabel: domainstats.FormatHourlyRate(rate),
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sessions.ErrInvalidSession):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, sessions.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, sessions.ErrLiveSessionExists),
		errors.Is(err, sessions.ErrSessionExists),
		errors.Is(err, sessions.ErrNotLive),
		errors.Is(err, sessions.ErrNotCompleted):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("request failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return metrics.Observe(next, func(sample metrics.RequestSample) {
		log.Print(sample.String())
	})
}
