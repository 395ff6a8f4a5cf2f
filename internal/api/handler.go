// Package api provides HTTP handlers for the plan generation endpoint.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/eventplanner/internal/convlog"
	"github.com/ashureev/eventplanner/internal/events"
	"github.com/ashureev/eventplanner/internal/llm"
	"github.com/ashureev/eventplanner/internal/middleware"
	"github.com/ashureev/eventplanner/internal/store"
)

// defaultMaxRequestBodySize is used when no body limit is configured.
const defaultMaxRequestBodySize = 1 << 20

// Handler serves generation, listing and deletion of recorded sessions.
type Handler struct {
	repo     store.Repository
	provider llm.Provider
	hub      *events.Hub
	convlog  convlog.Logger
	limiter  *middleware.RateLimiter
	stream   http.Handler
	maxBody  int64
	logger   *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithRateLimiter throttles POST requests per user.
func WithRateLimiter(rl *middleware.RateLimiter) Option {
	return func(h *Handler) { h.limiter = rl }
}

// WithConversationLog records every exchange.
func WithConversationLog(l convlog.Logger) Option {
	return func(h *Handler) { h.convlog = l }
}

// WithEventStream mounts the change-event stream at /ws.
func WithEventStream(stream http.Handler) Option {
	return func(h *Handler) { h.stream = stream }
}

// WithMaxBodyBytes caps the POST body size.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) { h.maxBody = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// NewHandler creates a Handler. hub may be nil when nobody listens for changes.
func NewHandler(repo store.Repository, provider llm.Provider, hub *events.Hub, opts ...Option) *Handler {
	h := &Handler{
		repo:     repo,
		provider: provider,
		hub:      hub,
		convlog:  convlog.Nop{},
		maxBody:  defaultMaxRequestBodySize,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers the endpoint routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandleGenerate)
	r.Get("/", h.HandleList)
	r.Delete("/", h.HandleDelete)
	if h.stream != nil {
		r.Method(http.MethodGet, "/ws", h.stream)
	}
}

func (h *Handler) publish(typ, userID, chatSessionID string) {
	if h.hub == nil {
		return
	}
	h.hub.Publish(events.Event{Type: typ, UserID: userID, ChatSessionID: chatSessionID})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
