// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/live-poll/auth"
	"github.com/danielhkuo/live-poll/middleware"
	"github.com/danielhkuo/live-poll/models"
	"github.com/danielhkuo/live-poll/poll"
)

type VotingHandler struct {
	svc *poll.Service
}

func NewVotingHandler(svc *poll.Service) *VotingHandler {
	return &VotingHandler{svc: svc}
}

// SubmitVote handles POST /api/votes
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.PollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "pollId is required")
		return
	}

	p, err := h.svc.Vote(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Failed to submit vote")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoteResult{Success: true, Poll: p})
}

// CreateSession handles POST /api/sessions
func (h *VotingHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		slog.Error("failed to generate session token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.SessionResponse{SessionID: token})
}
