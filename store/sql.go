// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/live-poll/db"
	"github.com/danielhkuo/live-poll/models"
)

// SQLStore keeps polls and votes in PostgreSQL or SQLite.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open connection. driverName selects the bind
// variable style ("postgres" or "sqlite").
func NewSQLStore(conn *sql.DB, driverName string) *SQLStore {
	return &SQLStore{db: sqlx.NewDb(conn, driverName)}
}

// OpenSQL opens the database, verifies the connection and creates the schema.
func OpenSQL(ctx context.Context, driverName, dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, errors.New("database URL required")
	}

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}

	// SQLite allows a single writer; funnel everything through one
	// connection instead of surfacing SQLITE_BUSY to callers.
	if driverName == TypeSQLite {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driverName, err)
	}

	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return NewSQLStore(conn, driverName), nil
}

type pollRow struct {
	ID        string       `db:"id"`
	Question  string       `db:"question"`
	Duration  int          `db:"duration_seconds"`
	Status    string       `db:"status"`
	StartTime sql.NullTime `db:"start_time"`
	EndTime   sql.NullTime `db:"end_time"`
	ClosedAt  sql.NullTime `db:"closed_at"`
	CreatedAt time.Time    `db:"created_at"`
}

type optionRow struct {
	PollID   string `db:"poll_id"`
	Position int    `db:"position"`
	Text     string `db:"text"`
	Votes    int    `db:"votes"`
}

const pollColumns = `id, question, duration_seconds, status, start_time, end_time, closed_at, created_at`

// Tallies are counted from the ledger so they can never drift from it.
const optionsQuery = `
	SELECT o.poll_id, o.position, o.text, COUNT(v.session_id) AS votes
	FROM poll_option o
	LEFT JOIN vote v ON v.poll_id = o.poll_id AND v.option_index = o.position
	WHERE o.poll_id IN (?)
	GROUP BY o.poll_id, o.position, o.text
	ORDER BY o.poll_id, o.position
`

func (s *SQLStore) InsertPoll(ctx context.Context, p *models.Poll) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO poll (id, question, duration_seconds, status, start_time, end_time, closed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), p.ID, p.Question, p.Duration, p.Status,
		nullTime(p.StartTime), nullTime(p.EndTime), nullTime(p.ClosedAt), p.CreatedAt.UTC())
	if err != nil {
		return castErr(err)
	}

	for i, opt := range p.Options {
		_, err = tx.ExecContext(ctx, s.db.Rebind(`
			INSERT INTO poll_option (poll_id, position, text)
			VALUES (?, ?, ?)
		`), p.ID, i, opt.Text)
		if err != nil {
			return castErr(err)
		}
	}

	return tx.Commit()
}

func (s *SQLStore) LoadPoll(ctx context.Context, id string) (*models.Poll, error) {
	var row pollRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT `+pollColumns+` FROM poll WHERE id = ?
	`), id)
	if err != nil {
		return nil, castErr(err)
	}

	polls, err := s.withOptions(ctx, []pollRow{row})
	if err != nil {
		return nil, err
	}
	return polls[0], nil
}

func (s *SQLStore) SavePoll(ctx context.Context, p *models.Poll) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE poll
		SET status = ?, start_time = ?, end_time = ?, closed_at = ?
		WHERE id = ?
	`), p.Status, nullTime(p.StartTime), nullTime(p.EndTime), nullTime(p.ClosedAt), p.ID)
	if err != nil {
		return castErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n != 1 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) FindActive(ctx context.Context) (*models.Poll, error) {
	var row pollRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT `+pollColumns+` FROM poll
		WHERE status = ?
		ORDER BY start_time DESC
		LIMIT 1
	`), models.StatusActive)
	if err != nil {
		return nil, castErr(err)
	}

	polls, err := s.withOptions(ctx, []pollRow{row})
	if err != nil {
		return nil, err
	}
	return polls[0], nil
}

func (s *SQLStore) FindCompleted(ctx context.Context, limit int) ([]*models.Poll, error) {
	rows := []pollRow{}
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT `+pollColumns+` FROM poll
		WHERE status = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`), models.StatusCompleted, limit)
	if err != nil {
		return nil, castErr(err)
	}
	if len(rows) == 0 {
		return []*models.Poll{}, nil
	}
	return s.withOptions(ctx, rows)
}

func (s *SQLStore) InsertVote(ctx context.Context, v models.Vote) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO vote (poll_id, session_id, option_index, participant_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), v.PollID, v.SessionID, v.OptionIndex, v.ParticipantName, v.CreatedAt.UTC())
	return castErr(err)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// withOptions attaches options and tallies to the given rows, keeping
// the row order.
func (s *SQLStore) withOptions(ctx context.Context, rows []pollRow) ([]*models.Poll, error) {
	ids := make([]string, len(rows))
	byID := make(map[string]*models.Poll, len(rows))
	polls := make([]*models.Poll, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
		polls[i] = r.toPoll()
		byID[r.ID] = polls[i]
	}

	query, args, err := sqlx.In(optionsQuery, ids)
	if err != nil {
		return nil, err
	}

	opts := []optionRow{}
	if err := s.db.SelectContext(ctx, &opts, s.db.Rebind(query), args...); err != nil {
		return nil, castErr(err)
	}

	for _, o := range opts {
		p := byID[o.PollID]
		if p == nil {
			continue
		}
		p.Options = append(p.Options, models.Option{Text: o.Text, Votes: o.Votes})
	}
	return polls, nil
}

func (r pollRow) toPoll() *models.Poll {
	return &models.Poll{
		ID:        r.ID,
		Question:  r.Question,
		Options:   []models.Option{},
		Duration:  r.Duration,
		Status:    r.Status,
		StartTime: timePtr(r.StartTime),
		EndTime:   timePtr(r.EndTime),
		ClosedAt:  timePtr(r.ClosedAt),
		CreatedAt: r.CreatedAt,
	}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// castErr replaces driver errors with ErrNotFound and ErrConflict where
// they apply.
//
// See http://www.postgresql.org/docs/current/static/errcodes-appendix.html
// and https://www.sqlite.org/rescode.html#extrc
func castErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrConflict
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return ErrConflict
		}
	}
	return err
}
