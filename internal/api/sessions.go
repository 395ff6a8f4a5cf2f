package api

import (
	"errors"
	"net/http"

	"github.com/ashureev/eventplanner/internal/domain"
	"github.com/ashureev/eventplanner/internal/events"
	"github.com/ashureev/eventplanner/internal/identity"
	"github.com/ashureev/eventplanner/internal/remote"
	"github.com/ashureev/eventplanner/internal/store"
)

// HandleList answers GET /?userId= with the user's recorded sessions.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusBadRequest, "userId is required")
		return
	}

	sessions, err := h.repo.ListSessions(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list sessions", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []domain.SessionRecord{}
	}
	JSON(w, http.StatusOK, remote.ListResponse{Sessions: sessions})
}

// HandleDelete answers DELETE /?userId=&chatSessionId=.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	chatSessionID := r.URL.Query().Get("chatSessionId")
	if userID == "" || chatSessionID == "" {
		Error(w, http.StatusBadRequest, "userId and chatSessionId are required")
		return
	}

	if err := h.repo.DeleteSession(r.Context(), userID, chatSessionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error("Failed to delete session", "error", err, "user_id", userID, "chat_session_id", chatSessionID)
		Error(w, http.StatusInternalServerError, "failed to delete session")
		return
	}

	h.publish(events.TypeSessionDeleted, userID, chatSessionID)
	JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
