// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the live poll API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(svc, hub, cfg)

# Endpoints

Health:

	GET /health

Poll lifecycle (start and stop require X-Admin-Key):

	POST /api/polls            - Create poll
	POST /api/polls/{id}/start - Start poll
	POST /api/polls/{id}/stop  - Stop poll early

Reads (public):

	GET /api/polls/active  - Active poll and remaining seconds
	GET /api/polls/history - Recent completed polls
	GET /api/polls/{id}    - Poll snapshot

Participants:

	POST /api/sessions - New session id
	POST /api/votes    - Submit vote

Realtime:

	GET /ws - WebSocket channel (see package realtime)
*/
package router
