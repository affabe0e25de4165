// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/live-poll/auth"
	"github.com/danielhkuo/live-poll/cliparse"
	"github.com/danielhkuo/live-poll/poll"
	"github.com/danielhkuo/live-poll/store"
)

// Epoch is the starting time of every FakeClock made by NewHarness.
var Epoch = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// SetupTestStore opens a private in-memory SQLite store with the full schema.
func SetupTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	// Named shared-cache databases are per process; a fresh name keeps
	// tests isolated.
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	st, err := store.OpenSQL(context.Background(), store.TypeSQLite, dsn)
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// SetupPebbleStore opens a pebble store in a temporary directory.
func SetupPebbleStore(t *testing.T) *store.PebbleStore {
	t.Helper()

	st, err := store.OpenPebble(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open pebble store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseType: store.TypeSQLite,
		DatabaseURL:  "file::memory:",
		AdminKeySalt: "test-admin-salt",
		HistoryLimit: 20,
		CloseRetry:   2 * time.Second,
	}
}

// Harness is a poll service wired to a fake clock and a recording channel.
type Harness struct {
	Service *poll.Service
	Store   store.Store
	Clock   *FakeClock
	Channel *RecordingChannel
}

// NewHarness builds a service over st. A nil st gets SetupTestStore.
func NewHarness(t *testing.T, st store.Store) *Harness {
	t.Helper()

	if st == nil {
		st = SetupTestStore(t)
	}
	h := &Harness{
		Store:   st,
		Clock:   NewFakeClock(Epoch),
		Channel: &RecordingChannel{},
	}
	h.Service = poll.NewService(poll.Config{
		Store:      st,
		Channel:    h.Channel,
		Clock:      h.Clock,
		CloseRetry: 2 * time.Second,
	})
	t.Cleanup(h.Service.Shutdown)
	return h
}

// CreateTestPoll creates a poll with the given options and returns its ID
// and admin key. When start is true the poll is also started.
func CreateTestPoll(t *testing.T, svc *poll.Service, cfg cliparse.Config, duration int, start bool, options ...string) (pollID, adminKey string) {
	t.Helper()

	if len(options) == 0 {
		options = []string{"Red", "Blue"}
	}
	p, err := svc.CreatePoll(context.Background(), "Test question?", options, duration)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}
	if start {
		if _, err := svc.StartPoll(context.Background(), p.ID); err != nil {
			t.Fatalf("Failed to start test poll: %v", err)
		}
	}
	return p.ID, auth.GenerateAdminKey(p.ID, cfg.AdminKeySalt)
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
