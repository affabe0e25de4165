// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseType: sqlite, postgres or pebble (default: sqlite)
  - DatabaseURL: DSN, or the data directory for pebble
  - AdminKeySalt: Secret for admin key HMAC (required)
  - HistoryLimit: Completed polls returned by history (default: 20)
  - CloseRetry: Delay before a failed deadline close is retried (default: 2s)

# CLI Flags

	-p             Server port
	-d             Database URL
	-t             Database type
	-history       History limit
	-close-retry   Close retry delay
	-admin-salt    Admin key salt
	-env-file      Dotenv file (default: .env)

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	HISTORY_LIMIT  → -history
	CLOSE_RETRY    → -close-retry
	ADMIN_KEY_SALT → -admin-salt

CLI flags take precedence over environment variables, and variables already
set in the environment take precedence over the dotenv file. A missing
dotenv file is not an error.

# Validation

ParseFlags returns an error if:

  - ADMIN_KEY_SALT is missing
  - DATABASE_URL is missing for postgres
  - a numeric or duration value does not parse

sqlite defaults to file:livepoll.db and pebble to ./livepoll-data.
*/
package cliparse
