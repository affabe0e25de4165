// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package poll implements the live poll engine: lifecycle, vote admission,
deadlines and broadcasts.

# Service

Service combines the components below and is what callers use:

	svc := poll.NewService(poll.Config{
		Store:   st,
		Channel: hub,
	})
	p, err := svc.CreatePoll(ctx, "Best color?", []string{"Red", "Blue"}, 10)
	p, err = svc.StartPoll(ctx, p.ID)
	p, err = svc.Vote(ctx, models.SubmitVoteRequest{PollID: p.ID, OptionIndex: 0, SessionID: "s1"})

# Lifecycle

Polls move pending → active → completed and never back. Manager owns the
transitions and a single active-poll slot, so at most one poll is active
per process. Close is idempotent: the second caller sees a completed poll
and returns without broadcasting.

# Vote Ledger

Ledger.SubmitVote checks, in order: poll exists, poll is active, deadline
not passed, option in range. It then inserts the vote, relying on the
store's (poll, session) uniqueness for deduplication, and increments the
chosen option by one.

# Deadlines

Scheduler arms one timer per active poll. When it fires, the poll is
closed through the same path as an explicit stop. A close that fails
because the store is unavailable is retried after Config.CloseRetry.

# Broadcasts

Coordinator publishes poll:started, poll:update and poll:ended to all
observers and poll:state to a joining observer. Events are prepared
under the per-poll lock, so their seq numbers follow mutation order, and
published after it is released.

# Concurrency

Every mutation of a poll holds that poll's lock; different polls never
contend. No lock is held while talking to observers.

# Errors

	ErrInvalidInput      malformed creation or vote request
	ErrNotFound          unknown poll id
	ErrInvalidState      transition not allowed from the current state
	ErrPollNotActive     vote on a poll that is not active
	ErrPollExpired       vote after the deadline
	ErrInvalidOption     option index out of range
	ErrAlreadyVoted      second vote from the same session
	ErrStoreUnavailable  persistence failure
*/
package poll
