// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/danielhkuo/live-poll/models"
)

const (
	pollPrefix = "poll/"
	votePrefix = "vote/"
)

// PebbleStore is an embedded Pebble-backed Store for single-node
// deployments. Polls and votes are stored as JSON documents.
type PebbleStore struct {
	db *pebble.DB
	// mu serializes insert-if-absent sequences; Pebble has no native
	// conditional put.
	mu sync.Mutex
}

// OpenPebble opens (or creates) a Pebble database in dir.
func OpenPebble(dir string) (*PebbleStore, error) {
	if dir == "" {
		return nil, errors.New("pebble directory required")
	}
	db, err := pebble.Open(dir, &pebble.Options{Logger: pebbleLogger{}})
	if err != nil {
		return nil, fmt.Errorf("pebble open %s: %w", dir, err)
	}
	slog.Info("pebble storage opened", "path", dir)
	return &PebbleStore{db: db}, nil
}

func pollKey(id string) []byte {
	return []byte(pollPrefix + id)
}

func voteKey(pollID, sessionID string) []byte {
	return []byte(votePrefix + pollID + "/" + sessionID)
}

func (s *PebbleStore) InsertPoll(ctx context.Context, p *models.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.has(pollKey(p.ID))
	if err != nil {
		return err
	}
	if exists {
		return ErrConflict
	}
	return s.put(pollKey(p.ID), stripTallies(p))
}

func (s *PebbleStore) LoadPoll(ctx context.Context, id string) (*models.Poll, error) {
	data, closer, err := s.db.Get(pollKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pebble get: %w", err)
	}
	defer closer.Close()

	var p models.Poll
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal poll %s: %w", id, err)
	}
	if err := s.countVotes(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PebbleStore) SavePoll(ctx context.Context, p *models.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.has(pollKey(p.ID))
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return s.put(pollKey(p.ID), stripTallies(p))
}

func (s *PebbleStore) FindActive(ctx context.Context) (*models.Poll, error) {
	polls, err := s.scanPolls(models.StatusActive)
	if err != nil {
		return nil, err
	}
	if len(polls) == 0 {
		return nil, ErrNotFound
	}
	sort.Slice(polls, func(i, j int) bool {
		return startOf(polls[i]).After(startOf(polls[j]))
	})
	if err := s.countVotes(polls[0]); err != nil {
		return nil, err
	}
	return polls[0], nil
}

func (s *PebbleStore) FindCompleted(ctx context.Context, limit int) ([]*models.Poll, error) {
	polls, err := s.scanPolls(models.StatusCompleted)
	if err != nil {
		return nil, err
	}
	sort.Slice(polls, func(i, j int) bool {
		if polls[i].CreatedAt.Equal(polls[j].CreatedAt) {
			return polls[i].ID > polls[j].ID
		}
		return polls[i].CreatedAt.After(polls[j].CreatedAt)
	})
	if limit >= 0 && len(polls) > limit {
		polls = polls[:limit]
	}
	for _, p := range polls {
		if err := s.countVotes(p); err != nil {
			return nil, err
		}
	}
	return polls, nil
}

func (s *PebbleStore) InsertVote(ctx context.Context, v models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voteKey(v.PollID, v.SessionID)
	exists, err := s.has(key)
	if err != nil {
		return err
	}
	if exists {
		return ErrConflict
	}
	return s.put(key, pebbleVote{
		SessionID:       v.SessionID,
		OptionIndex:     v.OptionIndex,
		ParticipantName: v.ParticipantName,
		CreatedAt:       v.CreatedAt,
	})
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

// pebbleVote is the stored form of a vote; the poll id is in the key.
type pebbleVote struct {
	SessionID       string    `json:"sessionId"`
	OptionIndex     int       `json:"optionIndex"`
	ParticipantName string    `json:"participantName"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (s *PebbleStore) has(key []byte) (bool, error) {
	_, closer, err := s.db.Get(key)
	if err == nil {
		closer.Close()
		return true, nil
	}
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("pebble get: %w", err)
}

func (s *PebbleStore) put(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := s.db.Set(key, data, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set: %w", err)
	}
	return nil
}

func (s *PebbleStore) scanPolls(status string) ([]*models.Poll, error) {
	prefix := []byte(pollPrefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	defer iter.Close()

	polls := []*models.Poll{}
	for iter.First(); iter.Valid(); iter.Next() {
		var p models.Poll
		if err := json.Unmarshal(iter.Value(), &p); err != nil {
			return nil, fmt.Errorf("unmarshal poll %s: %w", iter.Key(), err)
		}
		if p.Status == status {
			polls = append(polls, &p)
		}
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return polls, nil
}

// countVotes rebuilds the option tallies from the poll's vote keys.
func (s *PebbleStore) countVotes(p *models.Poll) error {
	for i := range p.Options {
		p.Options[i].Votes = 0
	}

	prefix := []byte(votePrefix + p.ID + "/")
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return fmt.Errorf("pebble iter: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		var v pebbleVote
		if err := json.Unmarshal(iter.Value(), &v); err != nil {
			return fmt.Errorf("unmarshal vote %s: %w", iter.Key(), err)
		}
		if v.OptionIndex >= 0 && v.OptionIndex < len(p.Options) {
			p.Options[v.OptionIndex].Votes++
		}
	}
	return iter.Error()
}

func stripTallies(p *models.Poll) *models.Poll {
	c := p.Clone()
	for i := range c.Options {
		c.Options[i].Votes = 0
	}
	return c
}

func startOf(p *models.Poll) time.Time {
	if p.StartTime != nil {
		return *p.StartTime
	}
	return time.Time{}
}

func prefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// pebbleLogger routes Pebble's internal logging through slog.
type pebbleLogger struct{}

func (pebbleLogger) Infof(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...), "component", "pebble")
}

func (pebbleLogger) Errorf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...), "component", "pebble")
}

func (pebbleLogger) Fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...), "component", "pebble")
	panic(fmt.Sprintf(format, args...))
}
