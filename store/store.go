// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielhkuo/live-poll/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Store is the durable home of polls and the vote ledger.
//
// Implementations must make InsertVote fail with ErrConflict when a vote
// for the same (PollID, SessionID) already exists; the vote ledger uses
// that as its atomic deduplication primitive. Option tallies returned by
// the loaders are derived from the stored votes.
type Store interface {
	InsertPoll(ctx context.Context, p *models.Poll) error
	LoadPoll(ctx context.Context, id string) (*models.Poll, error)
	// SavePoll replaces the stored lifecycle fields of an existing poll.
	SavePoll(ctx context.Context, p *models.Poll) error
	// FindActive returns ErrNotFound when no poll is active.
	FindActive(ctx context.Context) (*models.Poll, error)
	// FindCompleted returns completed polls, newest first.
	FindCompleted(ctx context.Context, limit int) ([]*models.Poll, error)
	InsertVote(ctx context.Context, v models.Vote) error
	Close() error
}

// Supported values for the database type setting.
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypePebble   = "pebble"
)

// Open connects to the configured backend and prepares it for use.
func Open(ctx context.Context, dbType, dsn string) (Store, error) {
	switch dbType {
	case TypeSQLite, TypePostgres:
		return OpenSQL(ctx, dbType, dsn)
	case TypePebble:
		return OpenPebble(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}
}
