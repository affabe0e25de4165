// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poll

import (
	"sync"
	"time"
)

// Scheduler keeps at most one armed deadline timer per poll id and calls
// fire(pollID) when a timer expires.
type Scheduler struct {
	clock Clock
	fire  func(pollID string)

	mu      sync.Mutex
	timers  map[string]*deadline
	stopped bool
}

type deadline struct {
	timer Timer
}

func NewScheduler(clock Clock, fire func(pollID string)) *Scheduler {
	return &Scheduler{
		clock:  clock,
		fire:   fire,
		timers: make(map[string]*deadline),
	}
}

// Arm schedules a single fire for pollID after d, cancelling any timer
// already armed for it.
func (s *Scheduler) Arm(pollID string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if prev, ok := s.timers[pollID]; ok {
		prev.timer.Stop()
	}

	dl := &deadline{}
	s.timers[pollID] = dl
	dl.timer = s.clock.AfterFunc(d, func() { s.expire(pollID, dl) })
}

// Disarm cancels the pending timer for pollID. It reports whether a timer
// was pending; a fired or unknown timer is a no-op.
func (s *Scheduler) Disarm(pollID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	dl, ok := s.timers[pollID]
	if !ok {
		return false
	}
	delete(s.timers, pollID)
	return dl.timer.Stop()
}

// Armed reports whether a timer is pending for pollID.
func (s *Scheduler) Armed(pollID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[pollID]
	return ok
}

// Stop cancels every pending timer and refuses further arming.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, dl := range s.timers {
		dl.timer.Stop()
		delete(s.timers, id)
	}
	s.stopped = true
}

func (s *Scheduler) expire(pollID string, dl *deadline) {
	s.mu.Lock()
	// Replaced by a later Arm, or disarmed after the timer was already
	// running: either way this timer no longer owns the deadline.
	if s.timers[pollID] != dl {
		s.mu.Unlock()
		return
	}
	delete(s.timers, pollID)
	s.mu.Unlock()

	s.fire(pollID)
}
