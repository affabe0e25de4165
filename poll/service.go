// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poll

import (
	"context"
	"log/slog"
	"time"

	"github.com/danielhkuo/live-poll/models"
	"github.com/danielhkuo/live-poll/store"
)

// Defaults applied by NewService when Config leaves them zero.
const (
	DefaultHistoryLimit = 20
	DefaultCloseRetry   = 2 * time.Second
)

type Config struct {
	Store        store.Store
	Channel      Channel
	Clock        Clock
	Logger       *slog.Logger
	HistoryLimit int
	CloseRetry   time.Duration
}

// Service is the entry point used by the HTTP handlers and the realtime
// transport.
type Service struct {
	manager *Manager
	ledger  *Ledger
	sched   *Scheduler
	bc      *Coordinator
}

func NewService(cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.CloseRetry <= 0 {
		cfg.CloseRetry = DefaultCloseRetry
	}

	locks := newKeyedMutex()
	bc := NewCoordinator(cfg.Channel, cfg.Logger)

	m := &Manager{
		store:        cfg.Store,
		clock:        cfg.Clock,
		locks:        locks,
		bc:           bc,
		log:          cfg.Logger,
		historyLimit: cfg.HistoryLimit,
		closeRetry:   cfg.CloseRetry,
	}
	m.sched = NewScheduler(cfg.Clock, m.expire)

	return &Service{
		manager: m,
		ledger: &Ledger{
			store: cfg.Store,
			clock: cfg.Clock,
			locks: locks,
			bc:    bc,
			log:   cfg.Logger,
		},
		sched: m.sched,
		bc:    bc,
	}
}

func (s *Service) CreatePoll(ctx context.Context, question string, options []string, duration int) (*models.Poll, error) {
	return s.manager.Create(ctx, question, options, duration)
}

func (s *Service) StartPoll(ctx context.Context, pollID string) (*models.Poll, error) {
	return s.manager.Start(ctx, pollID)
}

// StopPoll closes a poll before its deadline. It shares the close path with
// the deadline timer.
func (s *Service) StopPoll(ctx context.Context, pollID string) (*models.Poll, error) {
	return s.manager.Close(ctx, pollID)
}

func (s *Service) Vote(ctx context.Context, req models.SubmitVoteRequest) (*models.Poll, error) {
	return s.ledger.SubmitVote(ctx, req)
}

func (s *Service) ActivePoll(ctx context.Context) (*models.Poll, int, error) {
	return s.manager.Active(ctx)
}

func (s *Service) GetPoll(ctx context.Context, pollID string) (*models.Poll, error) {
	return s.manager.Get(ctx, pollID)
}

func (s *Service) History(ctx context.Context) ([]*models.Poll, error) {
	return s.manager.History(ctx)
}

// Join answers a newly connected observer with poll:state for the active
// poll. Nothing is sent when no poll is active.
func (s *Service) Join(ctx context.Context, observerID string) error {
	ev, err := s.manager.stateEvent(ctx)
	if err != nil {
		return err
	}
	if ev == nil {
		return nil
	}
	s.bc.SendTo(observerID, *ev)
	return nil
}

func (s *Service) Recover(ctx context.Context) error {
	return s.manager.Recover(ctx)
}

// Shutdown disarms every pending deadline. Polls stay active in the store
// and are picked up again by Recover.
func (s *Service) Shutdown() {
	s.sched.Stop()
}
