// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/live-poll/auth"
	"github.com/danielhkuo/live-poll/cliparse"
	"github.com/danielhkuo/live-poll/middleware"
	"github.com/danielhkuo/live-poll/models"
	"github.com/danielhkuo/live-poll/poll"
)

type PollHandler struct {
	svc *poll.Service
	cfg cliparse.Config
}

func NewPollHandler(svc *poll.Service, cfg cliparse.Config) *PollHandler {
	return &PollHandler{svc: svc, cfg: cfg}
}

// CreatePoll handles POST /api/polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	duration := models.DefaultDuration
	if req.Duration != nil {
		duration = *req.Duration
	}

	p, err := h.svc.CreatePoll(r.Context(), req.Question, req.Options, duration)
	if err != nil {
		writeServiceError(w, err, "Failed to create poll")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{
		Poll:     p,
		AdminKey: auth.GenerateAdminKey(p.ID, h.cfg.AdminKeySalt),
	})
}

// StartPoll handles POST /api/polls/{id}/start
func (h *PollHandler) StartPoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	p, err := h.svc.StartPoll(r.Context(), pollID)
	if err != nil {
		writeServiceError(w, err, "Failed to start poll")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, p)
}

// StopPoll handles POST /api/polls/{id}/stop
func (h *PollHandler) StopPoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	p, err := h.svc.StopPoll(r.Context(), pollID)
	if err != nil {
		writeServiceError(w, err, "Failed to stop poll")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, p)
}

// GetActivePoll handles GET /api/polls/active
func (h *PollHandler) GetActivePoll(w http.ResponseWriter, r *http.Request) {
	p, remaining, err := h.svc.ActivePoll(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to fetch active poll")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ActivePollResponse{
		Poll:          p,
		RemainingTime: remaining,
	})
}

// GetPollHistory handles GET /api/polls/history
func (h *PollHandler) GetPollHistory(w http.ResponseWriter, r *http.Request) {
	polls, err := h.svc.History(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to fetch poll history")
		return
	}

	entries := make([]models.HistoryEntry, 0, len(polls))
	for _, p := range polls {
		entry := models.HistoryEntry{Poll: p, Total: p.TotalVotes()}
		if p.ClosedAt != nil {
			entry.Ended = humanize.Time(*p.ClosedAt)
		}
		entries = append(entries, entry)
	}

	middleware.JSONResponse(w, http.StatusOK, entries)
}

// GetPoll handles GET /api/polls/{id}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll ID required")
		return
	}

	p, err := h.svc.GetPoll(r.Context(), pollID)
	if err != nil {
		writeServiceError(w, err, "Failed to fetch poll")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, p)
}

// authorize checks X-Admin-Key against the poll in the path.
func (h *PollHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll ID required")
		return "", false
	}

	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(pollID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return "", false
	}
	return pollID, true
}
