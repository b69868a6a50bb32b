// Package api serves the focusd JSON API used by the browser extension and
// the terminal dashboard.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/focusd/internal/model"
	"github.com/sandeepkv93/focusd/internal/storage"
)

// FocusTracker is implemented by tracking.Tracker.
type FocusTracker interface {
	Report(ctx context.Context, in model.CurrentFocus) (*model.CurrentFocus, error)
	Current(ctx context.Context) (*model.CurrentFocus, error)
}

type Handler struct {
	repo    storage.Repository
	tracker FocusTracker
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

type HandlerOption func(*Handler)

func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = logger }
}

// WithClock overrides the time source. Completed sessions are credited to
// the calendar day of the returned time's location.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) { h.now = now }
}

func WithIDGenerator(newID func() string) HandlerOption {
	return func(h *Handler) { h.newID = newID }
}

func NewHandler(repo storage.Repository, tracker FocusTracker, opts ...HandlerOption) *Handler {
	h := &Handler{
		repo:    repo,
		tracker: tracker,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes adds the API routes to mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.handleHealth)

	mux.HandleFunc("GET /api/tasks", h.handleListTasks)
	mux.HandleFunc("POST /api/tasks", h.handleCreateTask)
	mux.HandleFunc("GET /api/tasks/{id}", h.handleGetTask)
	mux.HandleFunc("PUT /api/tasks/{id}", h.handleUpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.handleDeleteTask)

	mux.HandleFunc("POST /api/focus", h.handleReportFocus)
	mux.HandleFunc("GET /api/focus/current", h.handleCurrentFocus)
	mux.HandleFunc("GET /api/focus/status", h.handleFocusStatus)

	mux.HandleFunc("GET /api/pomodoro/{client_id}", h.handleGetPomodoro)
	mux.HandleFunc("PUT /api/pomodoro/{client_id}", h.handlePutPomodoro)

	mux.HandleFunc("POST /api/stats/focus-completed", h.handleFocusCompleted)
	mux.HandleFunc("GET /api/stats/daily", h.handleDailyStats)
	mux.HandleFunc("GET /api/stats/usage", h.handleUsage)
	mux.HandleFunc("GET /api/history", h.handleHistory)

	mux.HandleFunc("GET /api/settings", h.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", h.handlePutSettings)
}

// Router returns the full handler chain: routes, CORS and request logging.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return logRequests(h.logger, withCORS(mux))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   h.now().UTC().Format(time.RFC3339),
	})
}
