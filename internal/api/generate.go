package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ashureev/eventplanner/internal/convlog"
	"github.com/ashureev/eventplanner/internal/domain"
	"github.com/ashureev/eventplanner/internal/events"
	"github.com/ashureev/eventplanner/internal/identity"
	"github.com/ashureev/eventplanner/internal/llm"
	"github.com/ashureev/eventplanner/internal/prompt"
	"github.com/ashureev/eventplanner/internal/remote"
	"github.com/ashureev/eventplanner/internal/store"
)

// HandleGenerate answers POST / with a generated plan or follow-up answer
// and records the exchange for the caller.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var req remote.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.UserID = identity.Sanitize(req.UserID)
	if req.ChatType == "" {
		req.ChatType = domain.ChatTypeInitial
	}
	if !req.ChatType.Valid() {
		Error(w, http.StatusBadRequest, "chatType must be initial or follow-up")
		return
	}

	var (
		messages   []llm.Message
		userPrompt string
	)
	switch req.ChatType {
	case domain.ChatTypeInitial:
		userPrompt = strings.TrimSpace(req.Prompt)
		if userPrompt == "" && req.EventDraft != nil && !req.EventDraft.IsZero() {
			userPrompt = prompt.Compile(*req.EventDraft)
		}
		if userPrompt == "" {
			Error(w, http.StatusBadRequest, "prompt is required")
			return
		}
		messages = llm.InitialHistory(userPrompt)
	case domain.ChatTypeFollowUp:
		userPrompt = strings.TrimSpace(req.FollowUp)
		if userPrompt == "" {
			Error(w, http.StatusBadRequest, "followUp is required")
			return
		}
		if strings.TrimSpace(req.PrevPrompt) == "" || strings.TrimSpace(req.PrevResponse) == "" {
			Error(w, http.StatusBadRequest, "prevPrompt and prevResponse are required for a follow-up")
			return
		}
		messages = llm.FollowUpHistory(req.PrevPrompt, req.PrevResponse, userPrompt)
	}

	key := req.UserID
	if key == "" {
		key = r.RemoteAddr
	}
	if h.limiter != nil && !h.limiter.Allow(key) {
		Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	logger := h.logger.With(
		"request_id", chiMiddleware.GetReqID(r.Context()),
		"user_id", req.UserID,
		"chat_session_id", req.ChatSessionID,
		"chat_type", req.ChatType,
	)

	start := time.Now()
	result, err := h.provider.Generate(r.Context(), messages)
	elapsed := time.Since(start)

	ev := convlog.Event{
		UserID:        req.UserID,
		ChatSessionID: req.ChatSessionID,
		ChatType:      req.ChatType,
		Provider:      h.provider.Name(),
		Prompt:        userPrompt,
		Response:      result,
		DurationMS:    elapsed.Milliseconds(),
	}
	if err != nil && !errors.Is(err, llm.ErrEmptyResponse) {
		ev.Error = err.Error()
		h.convlog.Log(ev)
		logger.Error("Generation failed", "error", err, "provider", h.provider.Name())
		Error(w, http.StatusBadGateway, "generation failed")
		return
	}
	h.convlog.Log(ev)
	logger.Info("Generation completed", "duration_ms", elapsed.Milliseconds(), "result_bytes", len(result))

	if err := h.record(r.Context(), req, userPrompt, result); err != nil {
		logger.Warn("Failed to record exchange", "error", err)
	}

	JSON(w, http.StatusOK, remote.GenerateResponse{Result: result})
}

// record stores the exchange. Anonymous or unidentified exchanges are not kept.
func (h *Handler) record(ctx context.Context, req remote.GenerateRequest, userPrompt, result string) error {
	if req.UserID == "" || req.ChatSessionID == "" {
		return nil
	}
	now := time.Now().UTC()
	entry := domain.ChatEntry{
		ChatType:  req.ChatType,
		Prompt:    userPrompt,
		Response:  result,
		Timestamp: now,
	}

	if req.ChatType == domain.ChatTypeFollowUp {
		err := h.repo.AppendEntry(ctx, req.UserID, req.ChatSessionID, entry)
		if err == nil {
			h.publish(events.TypeSessionUpdated, req.UserID, req.ChatSessionID)
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	rec := &domain.SessionRecord{
		ChatSessionID: req.ChatSessionID,
		UserID:        req.UserID,
		Timestamp:     now,
		ChatHistory:   []domain.ChatEntry{entry},
	}
	if req.EventDraft != nil {
		rec.EventData = *req.EventDraft
	}
	if err := h.repo.CreateSession(ctx, rec); err != nil {
		return err
	}
	h.publish(events.TypeSessionCreated, req.UserID, req.ChatSessionID)
	return nil
}
