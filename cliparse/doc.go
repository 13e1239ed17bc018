// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cliparse.LoadDotEnv()
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseType: memory, sqlite, postgres, badger or redis (default: sqlite)
  - DatabaseURL: DSN, SQLite file, Badger directory or redis:// URL
    (required unless DatabaseType is memory)
  - AdminKeySalt: Secret for admin key HMAC (required)

# CLI Flags

	-c            YAML config file
	-p            Server port
	-d            Database URL
	-t            Database type
	--admin-salt  Admin key salt

# Environment Variables

Flags fall back to environment variables:

	SURVEYSTORE_CONFIG → -c
	PORT               → -p
	DATABASE_URL       → -d
	DATABASE_TYPE      → -t
	ADMIN_KEY_SALT     → --admin-salt

LoadDotEnv fills unset variables from .env.local, then .env.

# Config File

The YAML file is the lowest layer; CLI flags and environment variables
override it:

	port: 3318
	database_type: postgres
	database_url: postgres://surveys@localhost/surveys?sslmode=disable
	admin_key_salt: change-me
*/
package cliparse
