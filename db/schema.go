// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the survey store.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// DropSchema removes every table created by CreateSchema.
func DropSchema(db *sql.DB) error {
	_, err := db.Exec(`DROP TABLE IF EXISTS survey`)
	if err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}

	return nil
}

// The same DDL runs on Postgres and SQLite.
const schema = `
-- Survey versions, one row per (guid, versioned_on)
CREATE TABLE IF NOT EXISTS survey (
    guid TEXT NOT NULL,
    versioned_on BIGINT NOT NULL,
    study_key TEXT NOT NULL,
    identifier TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    published BOOLEAN NOT NULL DEFAULT FALSE,
    version BIGINT NOT NULL,
    created_on BIGINT NOT NULL,
    modified_on BIGINT NOT NULL,
    questions TEXT NOT NULL DEFAULT '[]',
    PRIMARY KEY (guid, versioned_on)
);

CREATE INDEX IF NOT EXISTS idx_survey_study_key ON survey(study_key);
CREATE INDEX IF NOT EXISTS idx_survey_study_published ON survey(study_key, published);
`
