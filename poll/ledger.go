// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danielhkuo/live-poll/models"
	"github.com/danielhkuo/live-poll/store"
)

// Ledger admits votes: at most one per (poll, session), only while the
// poll is active and inside its deadline. It is the only writer of option
// tallies.
type Ledger struct {
	store store.Store
	clock Clock
	locks *keyedMutex
	bc    *Coordinator
	log   *slog.Logger
}

// SubmitVote records a vote and broadcasts poll:update. The store insert is
// the commit point: once it succeeds the vote stands, whatever happens to
// the broadcast afterwards.
func (l *Ledger) SubmitVote(ctx context.Context, req models.SubmitVoteRequest) (*models.Poll, error) {
	p, ev, err := l.submit(ctx, req)
	if err != nil {
		return nil, err
	}
	l.bc.Publish(ev)
	return p, nil
}

func (l *Ledger) submit(ctx context.Context, req models.SubmitVoteRequest) (*models.Poll, Event, error) {
	if strings.TrimSpace(req.PollID) == "" {
		return nil, Event{}, fmt.Errorf("%w: poll id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, Event{}, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}

	unlock := l.locks.Lock(req.PollID)
	defer unlock()

	p, err := l.store.LoadPoll(ctx, req.PollID)
	if err != nil {
		return nil, Event{}, storeErr("load poll", err)
	}
	if p.Status != models.StatusActive {
		return nil, Event{}, ErrPollNotActive
	}

	// Checked independently of Status: the deadline can pass before the
	// scheduler gets to close the poll.
	now := l.clock.Now()
	if p.EndTime == nil || now.After(*p.EndTime) {
		return nil, Event{}, ErrPollExpired
	}

	if req.OptionIndex < 0 || req.OptionIndex >= len(p.Options) {
		return nil, Event{}, fmt.Errorf("%w: index %d out of range [0, %d)", ErrInvalidOption, req.OptionIndex, len(p.Options))
	}

	err = l.store.InsertVote(ctx, models.Vote{
		PollID:          p.ID,
		SessionID:       req.SessionID,
		OptionIndex:     req.OptionIndex,
		ParticipantName: strings.TrimSpace(req.StudentName),
		CreatedAt:       now,
	})
	if errors.Is(err, store.ErrConflict) {
		return nil, Event{}, ErrAlreadyVoted
	}
	if err != nil {
		return nil, Event{}, storeErr("insert vote", err)
	}

	// The vote row is the stored tally; stores count rows on load.
	p.Options[req.OptionIndex].Votes++

	l.log.Debug("vote accepted", "poll_id", p.ID, "option", req.OptionIndex)
	return p.Clone(), l.bc.event(models.EventUpdate, p, remainingTime(p, now)), nil
}
