// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/live-poll/cliparse"
	"github.com/danielhkuo/live-poll/handlers"
	"github.com/danielhkuo/live-poll/middleware"
	"github.com/danielhkuo/live-poll/poll"
	"github.com/danielhkuo/live-poll/realtime"
)

func NewRouter(svc *poll.Service, hub *realtime.Hub, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(svc, cfg)
	votingHandler := handlers.NewVotingHandler(svc)
	wsHandler := realtime.NewHandler(hub, svc, cfg.AdminKeySalt)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Poll lifecycle (start/stop require X-Admin-Key)
	mux.HandleFunc("POST /api/polls", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("POST /api/polls/{id}/start", middleware.WithLogging(pollHandler.StartPoll))
	mux.HandleFunc("POST /api/polls/{id}/stop", middleware.WithLogging(pollHandler.StopPoll))

	// Reads (public); the literal segments win over {id}
	mux.HandleFunc("GET /api/polls/active", middleware.WithLogging(pollHandler.GetActivePoll))
	mux.HandleFunc("GET /api/polls/history", middleware.WithLogging(pollHandler.GetPollHistory))
	mux.HandleFunc("GET /api/polls/{id}", middleware.WithLogging(pollHandler.GetPoll))

	// Participants
	mux.HandleFunc("POST /api/sessions", middleware.WithLogging(votingHandler.CreateSession))
	mux.HandleFunc("POST /api/votes", middleware.WithLogging(votingHandler.SubmitVote))

	// Realtime channel; not wrapped, the connection is hijacked
	mux.Handle("GET /ws", wsHandler)

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("live-poll API v1"))
	})

	return mux
}
