// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, event and domain types.

# Request Types

Types for parsing incoming JSON:

  - CreatePollRequest: question, options, duration (seconds, default 60)
  - SubmitVoteRequest: pollId, optionIndex, studentName, sessionId
  - PollCommand: pollId, adminKey (realtime start/stop)

# Response Types

  - CreatePollResponse: poll, admin_key
  - ActivePollResponse: poll (or null), remainingTime
  - VoteResult: success, poll
  - HistoryEntry: poll, totalVotes, ended
  - SessionResponse: sessionId
  - ErrorResponse: error, message

# Domain Types

  - Poll: question, ordered options with tallies, lifecycle state and times
  - Option: text and vote counter
  - Vote: one ledger entry, unique per (pollId, sessionId)

# Realtime

Every frame is an Envelope {event, data}. Poll events carry a PollEvent:

	poll:started  {seq, poll, remainingTime}
	poll:update   {seq, poll, remainingTime}
	poll:ended    {seq, poll, remainingTime: 0}
	poll:state    {seq, poll, remainingTime}   (reply to student:join)

# Constants

Status values:

	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
*/
package models
