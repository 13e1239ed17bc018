// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db provides the SQL backend for survey rows.

# Connecting

Open connects, pings and creates the schema in one step:

	conn, err := db.Open(db.Postgres, "postgres://...")
	if err != nil {
		log.Fatal(err)
	}
	st := db.NewStore(conn, db.Postgres)

Two dialects are supported: Postgres through lib/pq and SQLite through the
pure-Go modernc.org/sqlite driver. SQLite connections are limited to one
open connection.

# Schema Creation

CreateSchema is safe to call multiple times - uses IF NOT EXISTS for the
table and its indexes.

# Tables

  - survey: one row per (guid, versioned_on); questions are stored as a
    JSON array in a TEXT column

# Indexes

  - survey.(guid, versioned_on) (primary key)
  - survey.study_key
  - survey.(study_key, published)

# Concurrency

Insert relies on ON CONFLICT DO NOTHING and Put on a version-guarded
UPDATE, so both are atomic per row without explicit transactions.
*/
package db
