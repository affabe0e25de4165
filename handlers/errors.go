// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/live-poll/middleware"
	"github.com/danielhkuo/live-poll/poll"
)

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, poll.ErrInvalidInput), errors.Is(err, poll.ErrInvalidOption):
		return http.StatusBadRequest
	case errors.Is(err, poll.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, poll.ErrInvalidState),
		errors.Is(err, poll.ErrPollNotActive),
		errors.Is(err, poll.ErrAlreadyVoted):
		return http.StatusConflict
	case errors.Is(err, poll.ErrPollExpired):
		return http.StatusGone
	case errors.Is(err, poll.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err as a JSON error response. Server-side
// failures are logged and replaced by fallback so store details don't leak.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error(fallback, "error", err)
		middleware.ErrorResponse(w, status, fallback)
		return
	}
	middleware.ErrorResponse(w, status, err.Error())
}
