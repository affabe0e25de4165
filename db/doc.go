// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same DDL runs on PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite).

# Tables

  - poll: question, duration and lifecycle state
  - poll_option: ordered options per poll
  - vote: one row per (poll_id, session_id)

# Relationships

	poll 1──* poll_option
	poll 1──* vote

All foreign keys use ON DELETE CASCADE.

# Deduplication

The vote primary key (poll_id, session_id) is the uniqueness guarantee the
vote ledger relies on. Tallies are not stored; they are counted from the
vote table whenever a poll is loaded.
*/
package db
