// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poll

import (
	"errors"
	"fmt"

	"github.com/danielhkuo/live-poll/store"
)

// Caller-visible outcomes. Details are attached with %w, so compare with
// errors.Is.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("poll not found")
	ErrInvalidState     = errors.New("invalid poll state")
	ErrPollNotActive    = errors.New("poll is not active")
	ErrPollExpired      = errors.New("poll time expired")
	ErrInvalidOption    = errors.New("invalid option")
	ErrAlreadyVoted     = errors.New("already voted")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// storeErr maps a store failure to the engine taxonomy. Anything the store
// did not classify is treated as unavailability.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
	}
}
