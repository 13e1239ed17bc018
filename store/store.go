// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
)

var (
	ErrNotFound        = errors.New("store: row not found")
	ErrExists          = errors.New("store: row already exists")
	ErrVersionConflict = errors.New("store: version conflict")
)

// Key is the composite primary key of a row.
type Key struct {
	GUID        string
	VersionedOn int64
}

func (k Key) String() string {
	return k.GUID + "@" + strconv.FormatInt(k.VersionedOn, 10)
}

// Row is the persisted shape of one survey version.
type Row struct {
	GUID        string        `json:"guid"`
	VersionedOn int64         `json:"versionedOn"`
	StudyKey    string        `json:"studyKey"`
	Identifier  string        `json:"identifier"`
	Name        string        `json:"name"`
	Published   bool          `json:"published"`
	Version     int64         `json:"version"`
	CreatedOn   int64         `json:"createdOn"`
	ModifiedOn  int64         `json:"modifiedOn"`
	Questions   []QuestionRow `json:"questions"`
}

// QuestionRow is the persisted shape of one question. Data is opaque JSON.
type QuestionRow struct {
	GUID       string          `json:"guid"`
	Identifier string          `json:"identifier"`
	Prompt     string          `json:"prompt,omitempty"`
	Unit       string          `json:"unit,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

func (r Row) Key() Key {
	return Key{GUID: r.GUID, VersionedOn: r.VersionedOn}
}

// Clone deep-copies the row so callers never alias backend state.
func (r Row) Clone() Row {
	out := r
	if r.Questions != nil {
		out.Questions = make([]QuestionRow, len(r.Questions))
		for i, q := range r.Questions {
			out.Questions[i] = q
			if q.Data != nil {
				out.Questions[i].Data = append(json.RawMessage(nil), q.Data...)
			}
		}
	}
	return out
}

// Store is a per-key strongly consistent row store. Single-key operations
// are atomic; Scan is not isolated from concurrent writers.
type Store interface {
	// Get returns the row at key or ErrNotFound.
	Get(ctx context.Context, key Key) (Row, error)

	// Insert writes a new row, failing with ErrExists if the key is taken.
	Insert(ctx context.Context, row Row) error

	// Put replaces an existing row only if its stored Version equals
	// expected. Returns ErrNotFound or ErrVersionConflict otherwise.
	Put(ctx context.Context, row Row, expected int64) error

	// Delete removes the row at key only if its stored Version equals
	// expected. Returns ErrNotFound or ErrVersionConflict otherwise.
	Delete(ctx context.Context, key Key, expected int64) error

	// Scan returns every row matching q, in no particular order.
	Scan(ctx context.Context, q Query) ([]Row, error)

	Close() error
}
