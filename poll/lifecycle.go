// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/danielhkuo/live-poll/models"
	"github.com/danielhkuo/live-poll/store"
)

// expireTimeout bounds the close issued by a fired deadline, which has no
// caller context of its own.
const expireTimeout = 10 * time.Second

// Manager owns poll state transitions: pending → active → completed.
type Manager struct {
	store        store.Store
	clock        Clock
	locks        *keyedMutex
	sched        *Scheduler
	bc           *Coordinator
	log          *slog.Logger
	historyLimit int
	closeRetry   time.Duration

	active activeSlot
}

// activeSlot holds the id of the one poll allowed to be active.
type activeSlot struct {
	mu sync.Mutex
	id string
}

// claim sets the slot to id if it is empty (or already id).
func (a *activeSlot) claim(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.id != "" && a.id != id {
		return false
	}
	a.id = id
	return true
}

// release empties the slot if it holds id.
func (a *activeSlot) release(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.id != id {
		return false
	}
	a.id = ""
	return true
}

func (a *activeSlot) current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.id
}

// Create validates and stores a new pending poll. Question and option text
// are trimmed; blank options are dropped.
func (m *Manager) Create(ctx context.Context, question string, options []string, duration int) (*models.Poll, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrInvalidInput)
	}

	opts := make([]models.Option, 0, len(options))
	for _, o := range options {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, models.Option{Text: o})
		}
	}
	if len(opts) < 2 {
		return nil, fmt.Errorf("%w: at least 2 options required", ErrInvalidInput)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}

	p := &models.Poll{
		ID:        uuid.NewString(),
		Question:  question,
		Options:   opts,
		Duration:  duration,
		Status:    models.StatusPending,
		CreatedAt: m.clock.Now(),
	}
	if err := m.store.InsertPoll(ctx, p); err != nil {
		return nil, storeErr("insert poll", err)
	}

	m.log.Info("poll created", "poll_id", p.ID, "options", len(opts), "duration", duration)
	return p.Clone(), nil
}

// Start opens a pending poll for voting, arms its deadline and broadcasts
// poll:started.
func (m *Manager) Start(ctx context.Context, id string) (*models.Poll, error) {
	p, ev, err := m.start(ctx, id)
	if err != nil {
		return nil, err
	}
	m.bc.Publish(ev)
	return p, nil
}

func (m *Manager) start(ctx context.Context, id string) (*models.Poll, Event, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	p, err := m.store.LoadPoll(ctx, id)
	if err != nil {
		return nil, Event{}, storeErr("load poll", err)
	}
	if p.Status != models.StatusPending {
		return nil, Event{}, fmt.Errorf("%w: poll is %s", ErrInvalidState, p.Status)
	}
	if !m.active.claim(id) {
		return nil, Event{}, fmt.Errorf("%w: another poll is active", ErrInvalidState)
	}

	now := m.clock.Now()
	end := now.Add(time.Duration(p.Duration) * time.Second)
	p.Status = models.StatusActive
	p.StartTime = &now
	p.EndTime = &end

	if err := m.store.SavePoll(ctx, p); err != nil {
		m.active.release(id)
		return nil, Event{}, storeErr("save poll", err)
	}
	m.sched.Arm(id, end.Sub(now))

	m.log.Info("poll started", "poll_id", id, "ends", humanize.Time(end))
	return p.Clone(), m.bc.event(models.EventStarted, p, p.Duration), nil
}

// Close completes an active poll and broadcasts poll:ended. Closing a
// completed poll returns its snapshot without broadcasting again, so the
// deadline timer and an explicit stop can race safely.
func (m *Manager) Close(ctx context.Context, id string) (*models.Poll, error) {
	p, ev, err := m.close(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev != nil {
		m.bc.Publish(*ev)
	}
	return p, nil
}

func (m *Manager) close(ctx context.Context, id string) (*models.Poll, *Event, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	p, err := m.store.LoadPoll(ctx, id)
	if err != nil {
		return nil, nil, storeErr("load poll", err)
	}

	switch p.Status {
	case models.StatusCompleted:
		return p, nil, nil
	case models.StatusPending:
		return nil, nil, fmt.Errorf("%w: poll has not started", ErrInvalidState)
	}

	now := m.clock.Now()
	p.Status = models.StatusCompleted
	p.ClosedAt = &now

	if err := m.store.SavePoll(ctx, p); err != nil {
		return nil, nil, storeErr("save poll", err)
	}
	m.active.release(id)
	m.sched.Disarm(id)

	m.log.Info("poll closed", "poll_id", id, "votes", p.TotalVotes())
	ev := m.bc.event(models.EventEnded, p, 0)
	return p.Clone(), &ev, nil
}

// expire is the scheduler's fire callback.
func (m *Manager) expire(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), expireTimeout)
	defer cancel()

	_, err := m.Close(ctx, id)
	switch {
	case err == nil:
		m.log.Info("poll deadline reached", "poll_id", id)
	case errors.Is(err, ErrStoreUnavailable):
		m.log.Error("deadline close failed, retrying", "poll_id", id, "retry_in", m.closeRetry, "error", err)
		m.sched.Arm(id, m.closeRetry)
	default:
		m.log.Warn("deadline close skipped", "poll_id", id, "error", err)
	}
}

// Active returns the active poll and its remaining seconds, or nil when no
// poll is active.
func (m *Manager) Active(ctx context.Context) (*models.Poll, int, error) {
	id := m.active.current()
	if id == "" {
		return nil, 0, nil
	}

	unlock := m.locks.Lock(id)
	defer unlock()
	return m.loadActive(ctx, id)
}

// stateEvent builds poll:state for the active poll. It is sequenced under
// the poll lock, so its seq orders it against updates and the close.
func (m *Manager) stateEvent(ctx context.Context) (*Event, error) {
	id := m.active.current()
	if id == "" {
		return nil, nil
	}

	unlock := m.locks.Lock(id)
	defer unlock()

	p, remaining, err := m.loadActive(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	ev := m.bc.event(models.EventState, p, remaining)
	return &ev, nil
}

// loadActive expects the lock for id to be held.
func (m *Manager) loadActive(ctx context.Context, id string) (*models.Poll, int, error) {
	p, err := m.store.LoadPoll(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, storeErr("load poll", err)
	}
	if p.Status != models.StatusActive {
		return nil, 0, nil
	}
	return p, remainingTime(p, m.clock.Now()), nil
}

// Get returns the current snapshot of any poll.
func (m *Manager) Get(ctx context.Context, id string) (*models.Poll, error) {
	p, err := m.store.LoadPoll(ctx, id)
	if err != nil {
		return nil, storeErr("load poll", err)
	}
	return p, nil
}

// History returns the most recent completed polls, newest first.
func (m *Manager) History(ctx context.Context) ([]*models.Poll, error) {
	polls, err := m.store.FindCompleted(ctx, m.historyLimit)
	if err != nil {
		return nil, storeErr("find completed", err)
	}
	return polls, nil
}

// Recover re-adopts a poll the store still reports as active, typically
// after a restart: its deadline is re-armed, or it is closed right away if
// the deadline already passed.
func (m *Manager) Recover(ctx context.Context) error {
	p, err := m.store.FindActive(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storeErr("find active", err)
	}

	if !m.active.claim(p.ID) {
		return fmt.Errorf("%w: another poll is active", ErrInvalidState)
	}

	now := m.clock.Now()
	if p.EndTime == nil || !now.Before(*p.EndTime) {
		m.log.Info("closing overdue poll", "poll_id", p.ID)
		_, err := m.Close(ctx, p.ID)
		return err
	}

	m.sched.Arm(p.ID, p.EndTime.Sub(now))
	m.log.Info("poll recovered", "poll_id", p.ID, "ends", humanize.Time(*p.EndTime))
	return nil
}

// remainingTime is max(0, ceil(EndTime - now)) in whole seconds, never more
// than the poll's duration.
func remainingTime(p *models.Poll, now time.Time) int {
	if p.EndTime == nil {
		return 0
	}
	left := p.EndTime.Sub(now)
	if left <= 0 {
		return 0
	}
	secs := int((left + time.Second - 1) / time.Second)
	if secs > p.Duration {
		secs = p.Duration
	}
	return secs
}
