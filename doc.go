// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the live poll server.

A presenter creates a multiple-choice poll, starts it, and participants
vote once each while it runs. The poll closes when its duration elapses
or the presenter stops it. Every change is pushed to connected clients
over a WebSocket channel.

# Starting the Server

	ADMIN_KEY_SALT=dev go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -admin-salt dev

A .env file in the working directory is loaded if present.

# Configuration

Required settings:

  - ADMIN_KEY_SALT (-admin-salt): Secret for admin key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite, postgres or pebble (default: sqlite)
  - DATABASE_URL (-d): DSN or pebble directory
  - HISTORY_LIMIT (-history): Completed polls in history (default: 20)
  - CLOSE_RETRY (-close-retry): Deadline close retry delay (default: 2s)

# Architecture

  - poll: Lifecycle, vote ledger, deadline scheduler, broadcasts
  - store: SQL (PostgreSQL, SQLite) and pebble persistence
  - realtime: WebSocket hub and inbound event dispatch
  - handlers: HTTP request handlers
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Domain, request and response types
  - auth: Admin keys and session tokens
  - db: SQL schema creation
  - cliparse: Configuration parsing

On SIGINT or SIGTERM the HTTP server drains, pending deadlines are
disarmed and the store is closed. An active poll stays active in the
store and its deadline is re-armed on the next start.

See package documentation for each component.
*/
package main
