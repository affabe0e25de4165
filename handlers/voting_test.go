// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/live-poll/models"
	"github.com/danielhkuo/live-poll/testutil"
)

func TestSubmitVote(t *testing.T) {
	h := testutil.NewHarness(t, nil)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(h.Service)

	activeID, _ := testutil.CreateTestPoll(t, h.Service, cfg, 30, true, "Red", "Blue", "Green")

	tests := []struct {
		name           string
		body           any
		expectedStatus int
	}{
		{
			name:           "valid vote",
			body:           models.SubmitVoteRequest{PollID: activeID, OptionIndex: 2, StudentName: "Ana", SessionID: "s1"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "same session again",
			body:           models.SubmitVoteRequest{PollID: activeID, OptionIndex: 0, SessionID: "s1"},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "option out of range",
			body:           models.SubmitVoteRequest{PollID: activeID, OptionIndex: 3, SessionID: "s2"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negative option",
			body:           models.SubmitVoteRequest{PollID: activeID, OptionIndex: -1, SessionID: "s2"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing session",
			body:           models.SubmitVoteRequest{PollID: activeID, OptionIndex: 0},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing poll id",
			body:           models.SubmitVoteRequest{OptionIndex: 0, SessionID: "s3"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown poll",
			body:           models.SubmitVoteRequest{PollID: "nope", OptionIndex: 0, SessionID: "s3"},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/api/votes", tt.body, nil)
			w := httptest.NewRecorder()

			handler.SubmitVote(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	p, err := h.Service.GetPoll(t.Context(), activeID)
	if err != nil {
		t.Fatal(err)
	}
	if p.Options[2].Votes != 1 || p.TotalVotes() != 1 {
		t.Errorf("Expected a single vote for option 2, got %+v", p.Options)
	}
}

func TestSubmitVote_Response(t *testing.T) {
	h := testutil.NewHarness(t, nil)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(h.Service)

	pollID, _ := testutil.CreateTestPoll(t, h.Service, cfg, 30, true)

	req := testutil.MakeRequest("POST", "/api/votes", models.SubmitVoteRequest{PollID: pollID, OptionIndex: 1, SessionID: "s1"}, nil)
	w := httptest.NewRecorder()
	handler.SubmitVote(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.VoteResult
	testutil.AssertJSON(t, w, &resp)
	if !resp.Success {
		t.Error("Expected success")
	}
	if resp.Poll == nil || resp.Poll.Options[1].Votes != 1 {
		t.Errorf("Expected updated tally in response, got %+v", resp.Poll)
	}

	updates := h.Channel.Named(models.EventUpdate)
	if len(updates) != 1 {
		t.Fatalf("Expected one poll:update, got %d", len(updates))
	}
	if got := updates[0].PollEvent().Poll.Options[1].Votes; got != 1 {
		t.Errorf("Expected broadcast tally 1, got %d", got)
	}
}

func TestSubmitVote_PollStates(t *testing.T) {
	h := testutil.NewHarness(t, nil)
	cfg := testutil.GetTestConfig()
	handler := NewVotingHandler(h.Service)

	vote := func(pollID, session string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/api/votes", models.SubmitVoteRequest{PollID: pollID, OptionIndex: 0, SessionID: session}, nil)
		w := httptest.NewRecorder()
		handler.SubmitVote(w, req)
		return w
	}

	pendingID, _ := testutil.CreateTestPoll(t, h.Service, cfg, 30, false)
	testutil.AssertStatus(t, vote(pendingID, "a"), http.StatusConflict)

	activeID, _ := testutil.CreateTestPoll(t, h.Service, cfg, 5, false)
	if _, err := h.Service.StartPoll(t.Context(), activeID); err != nil {
		t.Fatal(err)
	}
	h.Clock.Advance(6 * time.Second)
	testutil.AssertStatus(t, vote(activeID, "b"), http.StatusConflict)
}

func TestSubmitVote_InvalidJSON(t *testing.T) {
	h := testutil.NewHarness(t, nil)
	handler := NewVotingHandler(h.Service)

	req := httptest.NewRequest("POST", "/api/votes", strings.NewReader("not json"))
	w := httptest.NewRecorder()

	handler.SubmitVote(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestCreateSession(t *testing.T) {
	h := testutil.NewHarness(t, nil)
	handler := NewVotingHandler(h.Service)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.CreateSession(w, httptest.NewRequest("POST", "/api/sessions", nil))

		testutil.AssertStatus(t, w, http.StatusCreated)
		var resp models.SessionResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.SessionID == "" {
			t.Fatal("Expected session id")
		}
		if seen[resp.SessionID] {
			t.Errorf("Duplicate session id %s", resp.SessionID)
		}
		seen[resp.SessionID] = true
	}
}
