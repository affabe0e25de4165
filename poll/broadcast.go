// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poll

import (
	"log/slog"
	"sync/atomic"

	"github.com/danielhkuo/live-poll/models"
)

// Channel is the realtime transport the engine publishes through.
// Implementations must not block on slow observers.
type Channel interface {
	BroadcastAll(event string, payload any) error
	SendTo(observerID, event string, payload any) error
}

// Coordinator turns lifecycle and tally changes into channel events. It
// keeps no per-observer history.
type Coordinator struct {
	ch  Channel
	log *slog.Logger
	seq atomic.Uint64
}

// Event is a prepared broadcast. Build it while holding the poll lock so
// Seq follows mutation order; publish it after releasing the lock.
type Event struct {
	Name    string
	Payload models.PollEvent
}

func NewCoordinator(ch Channel, logger *slog.Logger) *Coordinator {
	if ch == nil {
		ch = discardChannel{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{ch: ch, log: logger}
}

func (c *Coordinator) event(name string, p *models.Poll, remaining int) Event {
	return Event{
		Name: name,
		Payload: models.PollEvent{
			Seq:           c.seq.Add(1),
			Poll:          p.Clone(),
			RemainingTime: remaining,
		},
	}
}

// Publish sends ev to every observer. Delivery failures are logged only.
func (c *Coordinator) Publish(ev Event) {
	if err := c.ch.BroadcastAll(ev.Name, ev.Payload); err != nil {
		c.log.Warn("broadcast failed", "event", ev.Name, "poll_id", pollID(ev), "error", err)
	}
}

// SendTo delivers ev to a single observer. Delivery failures are logged only.
func (c *Coordinator) SendTo(observerID string, ev Event) {
	if err := c.ch.SendTo(observerID, ev.Name, ev.Payload); err != nil {
		c.log.Warn("send failed", "event", ev.Name, "observer", observerID, "error", err)
	}
}

func pollID(ev Event) string {
	if ev.Payload.Poll == nil {
		return ""
	}
	return ev.Payload.Poll.ID
}

type discardChannel struct{}

func (discardChannel) BroadcastAll(string, any) error { return nil }
func (discardChannel) SendTo(string, string, any) error { return nil }
