// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poll

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/danielhkuo/live-poll/models"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	k := newKeyedMutex()

	var mu sync.Mutex
	inside := 0
	maxInside := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("p1")
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside)
	assert.Zero(t, k.size(), "entries must be dropped once released")
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	k := newKeyedMutex()

	unlockA := k.Lock("a")
	defer unlockA()

	acquired := make(chan struct{})
	go func() {
		unlock := k.Lock("b")
		defer unlock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
}

func TestKeyedMutexUnlockIsIdempotent(t *testing.T) {
	k := newKeyedMutex()

	unlock := k.Lock("p1")
	unlock()
	unlock()

	assert.Zero(t, k.size())

	// Still usable after a double unlock.
	unlock = k.Lock("p1")
	assert.Equal(t, 1, k.size())
	unlock()
}

func TestRemainingTime(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Second)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"at start", start, 10},
		{"partial second rounds up", start.Add(2500 * time.Millisecond), 8},
		{"one nanosecond left", end.Add(-time.Nanosecond), 1},
		{"at deadline", end, 0},
		{"past deadline", end.Add(time.Hour), 0},
		{"clock behind start", start.Add(-5 * time.Second), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &models.Poll{Duration: 10, StartTime: &start, EndTime: &end}
			assert.Equal(t, tt.want, remainingTime(p, tt.now))
		})
	}

	assert.Zero(t, remainingTime(&models.Poll{Duration: 10}, start))
}
