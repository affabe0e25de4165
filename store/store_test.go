// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/live-poll/models"
	"github.com/danielhkuo/live-poll/store"
	"github.com/danielhkuo/live-poll/testutil"
)

var base = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

func backends(t *testing.T) map[string]func(t *testing.T) store.Store {
	return map[string]func(t *testing.T) store.Store{
		"sqlite": func(t *testing.T) store.Store { return testutil.SetupTestStore(t) },
		"pebble": func(t *testing.T) store.Store { return testutil.SetupPebbleStore(t) },
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, st store.Store)) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, open(t))
		})
	}
}

func newPoll(id string, created time.Time, options ...string) *models.Poll {
	if len(options) == 0 {
		options = []string{"Red", "Blue"}
	}
	opts := make([]models.Option, len(options))
	for i, o := range options {
		opts[i] = models.Option{Text: o}
	}
	return &models.Poll{
		ID:        id,
		Question:  "Question " + id,
		Options:   opts,
		Duration:  30,
		Status:    models.StatusPending,
		CreatedAt: created,
	}
}

func activate(p *models.Poll, at time.Time) {
	end := at.Add(time.Duration(p.Duration) * time.Second)
	p.Status = models.StatusActive
	p.StartTime = &at
	p.EndTime = &end
}

func complete(p *models.Poll, at time.Time) {
	p.Status = models.StatusCompleted
	p.ClosedAt = &at
}

func TestInsertAndLoad(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()
		p := newPoll("p1", base, "Red", "Blue", "Green")
		require.NoError(t, st.InsertPoll(ctx, p))

		got, err := st.LoadPoll(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "Question p1", got.Question)
		assert.Equal(t, models.StatusPending, got.Status)
		assert.Equal(t, 30, got.Duration)
		require.Len(t, got.Options, 3)
		assert.Equal(t, []string{"Red", "Blue", "Green"}, []string{got.Options[0].Text, got.Options[1].Text, got.Options[2].Text})
		assert.Nil(t, got.StartTime)
		assert.True(t, base.Equal(got.CreatedAt))

		_, err = st.LoadPoll(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)

		err = st.InsertPoll(ctx, newPoll("p1", base))
		assert.ErrorIs(t, err, store.ErrConflict)
	})
}

func TestSavePoll(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()
		p := newPoll("p1", base)
		require.NoError(t, st.InsertPoll(ctx, p))

		activate(p, base.Add(time.Minute))
		require.NoError(t, st.SavePoll(ctx, p))

		got, err := st.LoadPoll(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, got.Status)
		require.NotNil(t, got.StartTime)
		require.NotNil(t, got.EndTime)
		assert.True(t, base.Add(time.Minute).Equal(*got.StartTime))
		assert.True(t, base.Add(time.Minute+30*time.Second).Equal(*got.EndTime))

		err = st.SavePoll(ctx, newPoll("missing", base))
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestVotesAndTallies(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()
		require.NoError(t, st.InsertPoll(ctx, newPoll("p1", base)))
		require.NoError(t, st.InsertPoll(ctx, newPoll("p2", base)))

		insert := func(pollID, session string, option int) error {
			return st.InsertVote(ctx, models.Vote{
				PollID:          pollID,
				SessionID:       session,
				OptionIndex:     option,
				ParticipantName: "Ana",
				CreatedAt:       base,
			})
		}

		require.NoError(t, insert("p1", "a", 0))
		require.NoError(t, insert("p1", "b", 1))
		require.NoError(t, insert("p1", "c", 1))
		// Same session, other poll
		require.NoError(t, insert("p2", "a", 0))

		assert.ErrorIs(t, insert("p1", "a", 1), store.ErrConflict)

		got, err := st.LoadPoll(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 1, got.Options[0].Votes)
		assert.Equal(t, 2, got.Options[1].Votes)

		// Tallies are recounted from votes, not taken from the saved document.
		got.Options[0].Votes = 99
		require.NoError(t, st.SavePoll(ctx, got))
		got, err = st.LoadPoll(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 1, got.Options[0].Votes)

		got, err = st.LoadPoll(ctx, "p2")
		require.NoError(t, err)
		assert.Equal(t, 1, got.TotalVotes())
	})
}

func TestConcurrentDuplicateInsert(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()
		require.NoError(t, st.InsertPoll(ctx, newPoll("p1", base)))

		var ok, conflict atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				err := st.InsertVote(ctx, models.Vote{PollID: "p1", SessionID: "same", OptionIndex: i % 2, CreatedAt: base})
				switch {
				case err == nil:
					ok.Add(1)
				case assert.ErrorIs(t, err, store.ErrConflict):
					conflict.Add(1)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), ok.Load())
		assert.Equal(t, int32(9), conflict.Load())
	})
}

func TestFindActive(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()

		_, err := st.FindActive(ctx)
		assert.ErrorIs(t, err, store.ErrNotFound)

		p := newPoll("p1", base)
		require.NoError(t, st.InsertPoll(ctx, p))
		require.NoError(t, st.InsertPoll(ctx, newPoll("p2", base)))
		activate(p, base)
		require.NoError(t, st.SavePoll(ctx, p))

		got, err := st.FindActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, "p1", got.ID)
		assert.Len(t, got.Options, 2)
	})
}

func TestFindCompleted(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st store.Store) {
		ctx := context.Background()

		got, err := st.FindCompleted(ctx, 10)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)

		for i := 0; i < 5; i++ {
			p := newPoll(fmt.Sprintf("p%d", i), base.Add(time.Duration(i)*time.Minute))
			require.NoError(t, st.InsertPoll(ctx, p))
			if i == 2 {
				continue // stays pending
			}
			activate(p, p.CreatedAt)
			complete(p, p.CreatedAt.Add(10*time.Second))
			require.NoError(t, st.SavePoll(ctx, p))
		}
		require.NoError(t, st.InsertVote(ctx, models.Vote{PollID: "p4", SessionID: "s", OptionIndex: 1, CreatedAt: base}))

		got, err = st.FindCompleted(ctx, 3)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "p4", got[0].ID)
		assert.Equal(t, "p3", got[1].ID)
		assert.Equal(t, "p1", got[2].ID)
		assert.Equal(t, 1, got[0].Options[1].Votes)
		require.NotNil(t, got[0].ClosedAt)

		got, err = st.FindCompleted(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, got, 4)
	})
}

func TestPebbleReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	ctx := context.Background()

	st, err := store.OpenPebble(dir)
	require.NoError(t, err)
	require.NoError(t, st.InsertPoll(ctx, newPoll("p1", base)))
	require.NoError(t, st.InsertVote(ctx, models.Vote{PollID: "p1", SessionID: "s", OptionIndex: 0, CreatedAt: base}))
	require.NoError(t, st.Close())

	st, err = store.OpenPebble(dir)
	require.NoError(t, err)
	defer st.Close()

	got, err := st.LoadPoll(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Options[0].Votes)
	assert.ErrorIs(t, st.InsertVote(ctx, models.Vote{PollID: "p1", SessionID: "s", CreatedAt: base}), store.ErrConflict)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	_, err := store.Open(ctx, "mysql", "whatever")
	assert.Error(t, err)

	_, err = store.Open(ctx, store.TypeSQLite, "")
	assert.Error(t, err)

	st, err := store.Open(ctx, store.TypePebble, t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, st.Close())

	st, err = store.Open(ctx, store.TypeSQLite, "file:"+filepath.Join(t.TempDir(), "open.db"))
	require.NoError(t, err)
	assert.NoError(t, st.Close())
}
