// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package memstore is an in-process store.Store backed by a map.
package memstore

import (
	"context"
	"sync"

	"github.com/danielhkuo/surveystore/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu   sync.RWMutex
	rows map[store.Key]store.Row
}

func New() *Store {
	return &Store{rows: map[store.Key]store.Row{}}
}

func (s *Store) Get(ctx context.Context, key store.Key) (store.Row, error) {
	if err := ctx.Err(); err != nil {
		return store.Row{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[key]
	if !ok {
		return store.Row{}, store.ErrNotFound
	}
	return row.Clone(), nil
}

func (s *Store) Insert(ctx context.Context, row store.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[row.Key()]; ok {
		return store.ErrExists
	}
	s.rows[row.Key()] = row.Clone()
	return nil
}

func (s *Store) Put(ctx context.Context, row store.Row, expected int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.rows[row.Key()]
	if !ok {
		return store.ErrNotFound
	}
	if cur.Version != expected {
		return store.ErrVersionConflict
	}
	s.rows[row.Key()] = row.Clone()
	return nil
}

func (s *Store) Delete(ctx context.Context, key store.Key, expected int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.rows[key]
	if !ok {
		return store.ErrNotFound
	}
	if cur.Version != expected {
		return store.ErrVersionConflict
	}
	delete(s.rows, key)
	return nil
}

func (s *Store) Scan(ctx context.Context, q store.Query) ([]store.Row, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []store.Row{}
	for _, row := range s.rows {
		if q.Matches(row) {
			out = append(out, row.Clone())
		}
	}
	return out, nil
}

// Len reports the number of stored rows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func (s *Store) Close() error { return nil }
