// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/danielhkuo/live-poll/models"
)

var (
	ErrUnknownObserver = errors.New("unknown observer")
	ErrSlowObserver    = errors.New("observer queue full")
)

// sendQueueSize is the number of frames buffered per observer before
// further frames to it are dropped.
const sendQueueSize = 16

type observer struct {
	id   string
	send chan []byte
}

// Hub fans frames out to connected observers. Sends never block: a full
// observer queue drops the frame for that observer only.
type Hub struct {
	mu        sync.RWMutex
	observers map[string]*observer
}

func NewHub() *Hub {
	return &Hub{observers: make(map[string]*observer)}
}

func (h *Hub) register(id string) *observer {
	o := &observer{id: id, send: make(chan []byte, sendQueueSize)}
	h.mu.Lock()
	h.observers[id] = o
	h.mu.Unlock()
	return o
}

// unregister removes the observer and closes its queue, which ends its
// write loop.
func (h *Hub) unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if o, ok := h.observers[id]; ok {
		delete(h.observers, id)
		close(o.send)
	}
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

// BroadcastAll queues the frame for every observer.
func (h *Hub) BroadcastAll(event string, payload any) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for _, o := range h.observers {
		select {
		case o.send <- frame:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		return fmt.Errorf("%w: dropped for %d of %d observers", ErrSlowObserver, dropped, len(h.observers))
	}
	return nil
}

// SendTo queues the frame for one observer.
func (h *Hub) SendTo(observerID, event string, payload any) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	o, ok := h.observers[observerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownObserver, observerID)
	}
	select {
	case o.send <- frame:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrSlowObserver, observerID)
	}
}

func encodeFrame(event string, payload any) ([]byte, error) {
	frame, err := json.Marshal(models.Envelope{Event: event, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return frame, nil
}
