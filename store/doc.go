// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store defines the backing-store contract for survey rows.

# Keys and Rows

Rows are addressed by Key{GUID, VersionedOn}. Row is the storage shape; the
surveys package maps it to and from models.Survey.

# Operations

	Get(ctx, key)             → Row | ErrNotFound
	Insert(ctx, row)          → ok | ErrExists
	Put(ctx, row, expected)   → ok | ErrNotFound | ErrVersionConflict
	Delete(ctx, key, expected) → ok | ErrNotFound | ErrVersionConflict
	Scan(ctx, query)          → []Row

Put and Delete compare-and-swap on Row.Version: the write lands only if the
stored version still equals expected. Every operation touches exactly one key except
Scan, which is not isolated from concurrent writers.

# Queries

Scan filters are structured values, never strings:

	q := store.NewQuery().
		Eq(store.FieldStudyKey, "S1").
		Eq(store.FieldPublished, true)

In-process backends evaluate Query.Matches; SQL backends translate filters
to a parameterized WHERE clause over a fixed column list.

# Backends

  - memstore: map + mutex, for tests and single-process use
  - db: database/sql on Postgres (lib/pq) or SQLite (modernc.org/sqlite)
  - badgerstore: embedded BadgerDB
  - redisstore: Redis with WATCH/MULTI compare-and-swap

# Metrics

	st = store.Instrument(st, prometheus.DefaultRegisterer)

counts operations by outcome and records latency.
*/
package store
