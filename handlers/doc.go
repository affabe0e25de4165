// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the live poll API.

# Handler Types

  - PollHandler: Poll lifecycle (create, start, stop) and reads
  - VotingHandler: Vote submission and participant sessions

Both wrap a *poll.Service:

	pollHandler := handlers.NewPollHandler(svc, cfg)
	votingHandler := handlers.NewVotingHandler(svc)

# Poll Lifecycle

Polls progress through three states: pending → active → completed

	POST /api/polls            → CreatePoll (returns admin_key)
	POST /api/polls/{id}/start → StartPoll
	POST /api/polls/{id}/stop  → StopPoll

Start and stop require the X-Admin-Key header. A creation request without
duration gets 60 seconds.

# Reads

	GET /api/polls/active  → {poll, remainingTime}; poll is null when idle
	GET /api/polls/history → completed polls, newest first
	GET /api/polls/{id}    → any poll

# Voting

	POST /api/sessions → {sessionId}
	POST /api/votes    → {success, poll}

# Errors

Engine errors map to status codes:

	invalid input, invalid option            400
	poll not found                           404
	invalid state, not active, already voted 409
	poll time expired                        410
	store unavailable                        503
*/
package handlers
