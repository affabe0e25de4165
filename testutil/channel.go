// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"sync"

	"github.com/danielhkuo/live-poll/models"
)

// Recorded is one delivery captured by RecordingChannel. To is empty for
// broadcasts.
type Recorded struct {
	To      string
	Event   string
	Payload any
}

// PollEvent returns the payload as a models.PollEvent, or the zero value
// for other payloads.
func (r Recorded) PollEvent() models.PollEvent {
	ev, _ := r.Payload.(models.PollEvent)
	return ev
}

// RecordingChannel is a poll.Channel that keeps every delivery in memory.
// Err, when set, is returned from every call after recording.
type RecordingChannel struct {
	mu     sync.Mutex
	events []Recorded
	Err    error
}

func (c *RecordingChannel) BroadcastAll(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, Recorded{Event: event, Payload: payload})
	return c.Err
}

func (c *RecordingChannel) SendTo(observerID, event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, Recorded{To: observerID, Event: event, Payload: payload})
	return c.Err
}

// Events returns a copy of everything recorded so far.
func (c *RecordingChannel) Events() []Recorded {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Recorded(nil), c.events...)
}

// Named returns the recorded deliveries of a single event.
func (c *RecordingChannel) Named(event string) []Recorded {
	var out []Recorded
	for _, r := range c.Events() {
		if r.Event == event {
			out = append(out, r)
		}
	}
	return out
}

func (c *RecordingChannel) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}
