// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/danielhkuo/surveystore/store"
)

// Store is a store.Store over a SQL table. Single-row atomicity comes from
// conditional INSERT and UPDATE statements, not from transactions.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

var _ store.Store = (*Store)(nil)

// NewStore wraps an open connection. The schema must already exist.
func NewStore(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// columns maps query fields to table columns. Anything outside this map
// never reaches the SQL text.
var columns = map[store.Field]string{
	store.FieldStudyKey:  "study_key",
	store.FieldGUID:      "guid",
	store.FieldPublished: "published",
}

const selectColumns = `guid, versioned_on, study_key, identifier, name, published,
	version, created_on, modified_on, questions`

func (s *Store) Get(ctx context.Context, key store.Key) (store.Row, error) {
	query := fmt.Sprintf(`SELECT %s FROM survey WHERE guid = %s AND versioned_on = %s`,
		selectColumns, s.dialect.placeholder(1), s.dialect.placeholder(2))

	row, err := scanRow(s.db.QueryRowContext(ctx, query, key.GUID, key.VersionedOn))
	if errors.Is(err, sql.ErrNoRows) {
		return store.Row{}, store.ErrNotFound
	}
	if err != nil {
		return store.Row{}, fmt.Errorf("failed to get survey %s: %w", key, err)
	}
	return row, nil
}

func (s *Store) Insert(ctx context.Context, row store.Row) error {
	questions, err := encodeQuestions(row.Questions)
	if err != nil {
		return err
	}

	ph := s.dialect.placeholder
	query := fmt.Sprintf(`
		INSERT INTO survey (guid, versioned_on, study_key, identifier, name, published,
			version, created_on, modified_on, questions)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		ON CONFLICT (guid, versioned_on) DO NOTHING
	`, ph(1), ph(2), ph(3), ph(4), ph(5), ph(6), ph(7), ph(8), ph(9), ph(10))

	res, err := s.db.ExecContext(ctx, query,
		row.GUID, row.VersionedOn, row.StudyKey, row.Identifier, row.Name, row.Published,
		row.Version, row.CreatedOn, row.ModifiedOn, questions)
	if err != nil {
		return fmt.Errorf("failed to insert survey %s: %w", row.Key(), err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to insert survey %s: %w", row.Key(), err)
	}
	if n == 0 {
		return store.ErrExists
	}
	return nil
}

func (s *Store) Put(ctx context.Context, row store.Row, expected int64) error {
	questions, err := encodeQuestions(row.Questions)
	if err != nil {
		return err
	}

	ph := s.dialect.placeholder
	query := fmt.Sprintf(`
		UPDATE survey
		SET study_key = %s, identifier = %s, name = %s, published = %s,
			version = %s, created_on = %s, modified_on = %s, questions = %s
		WHERE guid = %s AND versioned_on = %s AND version = %s
	`, ph(1), ph(2), ph(3), ph(4), ph(5), ph(6), ph(7), ph(8), ph(9), ph(10), ph(11))

	res, err := s.db.ExecContext(ctx, query,
		row.StudyKey, row.Identifier, row.Name, row.Published,
		row.Version, row.CreatedOn, row.ModifiedOn, questions,
		row.GUID, row.VersionedOn, expected)
	if err != nil {
		return fmt.Errorf("failed to update survey %s: %w", row.Key(), err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update survey %s: %w", row.Key(), err)
	}
	if n > 0 {
		return nil
	}

	// Nothing matched: either the row is gone or its version moved on.
	if _, err := s.Get(ctx, row.Key()); err != nil {
		return err
	}
	return store.ErrVersionConflict
}

func (s *Store) Delete(ctx context.Context, key store.Key, expected int64) error {
	ph := s.dialect.placeholder
	query := fmt.Sprintf(`DELETE FROM survey WHERE guid = %s AND versioned_on = %s AND version = %s`,
		ph(1), ph(2), ph(3))

	res, err := s.db.ExecContext(ctx, query, key.GUID, key.VersionedOn, expected)
	if err != nil {
		return fmt.Errorf("failed to delete survey %s: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete survey %s: %w", key, err)
	}
	if n > 0 {
		return nil
	}

	if _, err := s.Get(ctx, key); err != nil {
		return err
	}
	return store.ErrVersionConflict
}

func (s *Store) Scan(ctx context.Context, q store.Query) ([]store.Row, error) {
	where, args, err := s.whereClause(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM survey`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan surveys: %w", err)
	}
	defer rows.Close()

	var out []store.Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read survey row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan surveys: %w", err)
	}

	return out, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// whereClause renders q as a parameterized WHERE clause. Values are always
// bound, never interpolated.
func (s *Store) whereClause(q store.Query) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}
	if len(q.Filters) == 0 {
		return "", nil, nil
	}

	terms := make([]string, 0, len(q.Filters))
	args := make([]any, 0, len(q.Filters))
	for i, f := range q.Filters {
		col, ok := columns[f.Field]
		if !ok {
			return "", nil, fmt.Errorf("store: field %q has no column", f.Field)
		}
		op := "="
		if f.Op == store.OpNe {
			op = "<>"
		}
		terms = append(terms, col+" "+op+" "+s.dialect.placeholder(i+1))
		args = append(args, f.Value)
	}

	return " WHERE " + strings.Join(terms, " AND "), args, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(sc rowScanner) (store.Row, error) {
	var (
		row       store.Row
		questions string
	)
	err := sc.Scan(&row.GUID, &row.VersionedOn, &row.StudyKey, &row.Identifier, &row.Name,
		&row.Published, &row.Version, &row.CreatedOn, &row.ModifiedOn, &questions)
	if err != nil {
		return store.Row{}, err
	}

	if err := json.Unmarshal([]byte(questions), &row.Questions); err != nil {
		return store.Row{}, fmt.Errorf("failed to decode questions of %s: %w", row.Key(), err)
	}
	return row, nil
}

func encodeQuestions(qs []store.QuestionRow) (string, error) {
	if qs == nil {
		qs = []store.QuestionRow{}
	}
	b, err := json.Marshal(qs)
	if err != nil {
		return "", fmt.Errorf("failed to encode questions: %w", err)
	}
	return string(b), nil
}
