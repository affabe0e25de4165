// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides presenter keys and participant session tokens.

# Admin Keys

Creating a poll returns an admin key. Starting and stopping the poll,
over HTTP or the realtime channel, requires it:

	adminKey := auth.GenerateAdminKey(pollID, salt)
	err := auth.ValidateAdminKey(pollID, adminKey, salt)

The key is HMAC-SHA256 over the poll ID, URL-safe base64 without padding.
It is deterministic, so nothing has to be stored to validate it.

# Session Tokens

Participants vote under an opaque session id:

	token, err := auth.GenerateSessionToken()

Tokens are 24 random bytes, URL-safe base64 encoded. They are not
verified; the vote ledger only uses them to enforce one vote per session
per poll.
*/
package auth
