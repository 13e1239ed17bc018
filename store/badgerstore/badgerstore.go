// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package badgerstore keeps survey rows in an embedded BadgerDB.
//
// Rows are JSON values under keys of the form
//
//	survey/{guid}/{versionedOn, zero padded}
//
// so every version of one guid shares a prefix. Atomicity comes from
// Badger's optimistic transactions: a commit that races another writer on
// the same key fails with badger.ErrConflict, which is mapped to the
// matching store error.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/danielhkuo/surveystore/store"
)

const keyPrefix = "survey/"

// Config holds configuration for a Badger-backed store.
type Config struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in RAM. Intended for tests.
	InMemory bool

	SyncWrites bool

	// Logger receives Badger's internal logs. Nil disables them.
	Logger *slog.Logger

	// GCInterval is how often value log GC runs. Zero disables it.
	GCInterval time.Duration
}

// DefaultConfig returns production settings for the directory at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:       path,
		SyncWrites: true,
		GCInterval: 5 * time.Minute,
	}
}

// InMemoryConfig returns settings for a throwaway in-memory store.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store implements store.Store on BadgerDB.
type Store struct {
	db     *badger.DB
	stopGC chan struct{}
	gcDone chan struct{}
	once   sync.Once
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database described by cfg.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badgerstore: path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	s := &Store{db: db}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.stopGC = make(chan struct{})
		s.gcDone = make(chan struct{})
		go s.runGC(cfg.GCInterval, cfg.Logger)
	}
	return s, nil
}

func (s *Store) runGC(interval time.Duration, logger *slog.Logger) {
	defer close(s.gcDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			// ErrNoRewrite means there was nothing to collect
			err := s.db.RunValueLogGC(0.5)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) && logger != nil {
				logger.Warn("badger value log GC error", slog.String("error", err.Error()))
			}
		}
	}
}

func encodeKey(k store.Key) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d", keyPrefix, k.GUID, k.VersionedOn))
}

func getRow(txn *badger.Txn, key store.Key) (store.Row, error) {
	item, err := txn.Get(encodeKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.Row{}, store.ErrNotFound
	}
	if err != nil {
		return store.Row{}, err
	}

	var row store.Row
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &row)
	})
	if err != nil {
		return store.Row{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return row, nil
}

func setRow(txn *badger.Txn, row store.Row) error {
	val, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode %s: %w", row.Key(), err)
	}
	return txn.Set(encodeKey(row.Key()), val)
}

func (s *Store) Get(ctx context.Context, key store.Key) (store.Row, error) {
	if err := ctx.Err(); err != nil {
		return store.Row{}, err
	}

	var row store.Row
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		row, err = getRow(txn, key)
		return err
	})
	return row, err
}

func (s *Store) Insert(ctx context.Context, row store.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := getRow(txn, row.Key()); !errors.Is(err, store.ErrNotFound) {
			if err == nil {
				return store.ErrExists
			}
			return err
		}
		return setRow(txn, row)
	})
	if errors.Is(err, badger.ErrConflict) {
		// A concurrent transaction created the key first.
		return store.ErrExists
	}
	return err
}

func (s *Store) Put(ctx context.Context, row store.Row, expected int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := getRow(txn, row.Key())
		if err != nil {
			return err
		}
		if current.Version != expected {
			return store.ErrVersionConflict
		}
		return setRow(txn, row)
	})
	if errors.Is(err, badger.ErrConflict) {
		return store.ErrVersionConflict
	}
	return err
}

func (s *Store) Delete(ctx context.Context, key store.Key, expected int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := getRow(txn, key)
		if err != nil {
			return err
		}
		if current.Version != expected {
			return store.ErrVersionConflict
		}
		return txn.Delete(encodeKey(key))
	})
	if errors.Is(err, badger.ErrConflict) {
		return store.ErrVersionConflict
	}
	return err
}

func (s *Store) Scan(ctx context.Context, q store.Query) ([]store.Row, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	prefix := []byte(keyPrefix)
	if guid, ok := q.EqualityValue(store.FieldGUID); ok {
		prefix = []byte(keyPrefix + guid + "/")
	}

	var out []store.Row
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var row store.Row
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if q.Matches(row) {
				out = append(out, row)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close stops GC and closes the database. Safe to call more than once.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		if s.stopGC != nil {
			close(s.stopGC)
			<-s.gcDone
		}
		err = s.db.Close()
	})
	return err
}
