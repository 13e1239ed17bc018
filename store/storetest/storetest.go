// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package storetest holds the behavioral suite every store.Store backend
// must pass.
package storetest

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/surveystore/store"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// Run exercises the full store.Store contract against fresh stores from
// newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"GetMissing", testGetMissing},
		{"InsertAndGet", testInsertAndGet},
		{"InsertDuplicate", testInsertDuplicate},
		{"PutCompareAndSwap", testPutCompareAndSwap},
		{"PutMissing", testPutMissing},
		{"Delete", testDelete},
		{"DeleteStaleVersion", testDeleteStaleVersion},
		{"ScanFilters", testScanFilters},
		{"ScanRejectsBadQuery", testScanRejectsBadQuery},
		{"ReturnedRowsAreCopies", testReturnedRowsAreCopies},
		{"ConcurrentPutsOneWinner", testConcurrentPutsOneWinner},
		{"ConcurrentInsertsOneWinner", testConcurrentInsertsOneWinner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()
			tt.fn(t, s)
		})
	}
}

// NewRow builds a minimal row at version 1.
func NewRow(guid string, versionedOn int64, studyKey string) store.Row {
	return store.Row{
		GUID:        guid,
		VersionedOn: versionedOn,
		StudyKey:    studyKey,
		Identifier:  "overview",
		Name:        "Health Overview",
		Version:     1,
		CreatedOn:   versionedOn,
		ModifiedOn:  versionedOn,
		Questions: []store.QuestionRow{
			{GUID: guid + "-q1", Identifier: "age", Unit: "years", Data: []byte(`{"min":0}`)},
			{GUID: guid + "-q2", Identifier: "gender"},
		},
	}
}

func testGetMissing(t *testing.T, s store.Store) {
	_, err := s.Get(context.Background(), store.Key{GUID: "nope", VersionedOn: 1})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testInsertAndGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	row := NewRow("g1", 1000, "S1")
	require.NoError(t, s.Insert(ctx, row))

	got, err := s.Get(ctx, row.Key())
	require.NoError(t, err)
	assert.Equal(t, row.GUID, got.GUID)
	assert.Equal(t, row.VersionedOn, got.VersionedOn)
	assert.Equal(t, row.StudyKey, got.StudyKey)
	assert.Equal(t, row.Identifier, got.Identifier)
	assert.Equal(t, row.Name, got.Name)
	assert.Equal(t, row.Version, got.Version)
	assert.Equal(t, row.CreatedOn, got.CreatedOn)
	assert.False(t, got.Published)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, "age", got.Questions[0].Identifier)
	assert.Equal(t, "years", got.Questions[0].Unit)
	assert.JSONEq(t, `{"min":0}`, string(got.Questions[0].Data))
	assert.Equal(t, "gender", got.Questions[1].Identifier)
}

func testInsertDuplicate(t *testing.T, s store.Store) {
	ctx := context.Background()
	row := NewRow("g1", 1000, "S1")
	require.NoError(t, s.Insert(ctx, row))

	row.Name = "replayed"
	assert.ErrorIs(t, s.Insert(ctx, row), store.ErrExists)

	got, err := s.Get(ctx, row.Key())
	require.NoError(t, err)
	assert.Equal(t, "Health Overview", got.Name, "failed insert must not modify the row")

	// Same guid, different versionedOn is a different row.
	require.NoError(t, s.Insert(ctx, NewRow("g1", 1001, "S1")))
}

func testPutCompareAndSwap(t *testing.T, s store.Store) {
	ctx := context.Background()
	row := NewRow("g1", 1000, "S1")
	require.NoError(t, s.Insert(ctx, row))

	row.Identifier = "changed"
	row.Published = true
	row.Version = 2
	require.NoError(t, s.Put(ctx, row, 1))

	got, err := s.Get(ctx, row.Key())
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Identifier)
	assert.True(t, got.Published)
	assert.Equal(t, int64(2), got.Version)

	stale := row
	stale.Identifier = "stale"
	stale.Version = 2
	assert.ErrorIs(t, s.Put(ctx, stale, 1), store.ErrVersionConflict)

	got, err = s.Get(ctx, row.Key())
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Identifier, "conflicting put must not modify the row")
}

func testPutMissing(t *testing.T, s store.Store) {
	row := NewRow("ghost", 1000, "S1")
	assert.ErrorIs(t, s.Put(context.Background(), row, 1), store.ErrNotFound)
}

func testDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	row := NewRow("g1", 1000, "S1")
	require.NoError(t, s.Insert(ctx, row))

	require.NoError(t, s.Delete(ctx, row.Key(), 1))
	_, err := s.Get(ctx, row.Key())
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, row.Key(), 1), store.ErrNotFound)

	rows, err := s.Scan(ctx, store.NewQuery().Eq(store.FieldStudyKey, "S1"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func testDeleteStaleVersion(t *testing.T, s store.Store) {
	ctx := context.Background()
	row := NewRow("g1", 1000, "S1")
	require.NoError(t, s.Insert(ctx, row))

	pub := row.Clone()
	pub.Published = true
	pub.Version = 2
	require.NoError(t, s.Put(ctx, pub, 1))

	assert.ErrorIs(t, s.Delete(ctx, row.Key(), 1), store.ErrVersionConflict)

	got, err := s.Get(ctx, row.Key())
	require.NoError(t, err, "conflicting delete must keep the row")
	assert.True(t, got.Published)

	rows, err := s.Scan(ctx, store.NewQuery().Eq(store.FieldStudyKey, "S1"))
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	require.NoError(t, s.Delete(ctx, row.Key(), 2))
}

func testScanFilters(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, NewRow("a", 1, "S1")))
	require.NoError(t, s.Insert(ctx, NewRow("a", 2, "S1")))
	require.NoError(t, s.Insert(ctx, NewRow("b", 3, "S1")))
	require.NoError(t, s.Insert(ctx, NewRow("c", 4, "S2")))

	pub := NewRow("a", 2, "S1")
	pub.Published = true
	pub.Version = 2
	require.NoError(t, s.Put(ctx, pub, 1))

	keys := func(q store.Query) []string {
		rows, err := s.Scan(ctx, q)
		require.NoError(t, err)
		out := make([]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.Key().String())
		}
		sort.Strings(out)
		return out
	}

	assert.Equal(t, []string{"a@1", "a@2", "b@3"}, keys(store.NewQuery().Eq(store.FieldStudyKey, "S1")))
	assert.Equal(t, []string{"c@4"}, keys(store.NewQuery().Eq(store.FieldStudyKey, "S2")))
	assert.Equal(t, []string{"a@1", "a@2"}, keys(store.NewQuery().Eq(store.FieldStudyKey, "S1").Eq(store.FieldGUID, "a")))
	assert.Equal(t, []string{"a@2"}, keys(store.NewQuery().Eq(store.FieldStudyKey, "S1").Eq(store.FieldPublished, true)))
	assert.Equal(t, []string{"a@1", "b@3"}, keys(store.NewQuery().Eq(store.FieldStudyKey, "S1").Where(store.FieldPublished, store.OpNe, true)))
	assert.Equal(t, []string{"a@1", "a@2", "b@3", "c@4"}, keys(store.NewQuery()))
	assert.Empty(t, keys(store.NewQuery().Eq(store.FieldStudyKey, "nope")))
}

func testScanRejectsBadQuery(t *testing.T, s store.Store) {
	_, err := s.Scan(context.Background(), store.NewQuery().Eq(store.Field("identifier' OR '1'='1"), "x"))
	assert.Error(t, err)
}

func testReturnedRowsAreCopies(t *testing.T, s store.Store) {
	ctx := context.Background()
	row := NewRow("g1", 1000, "S1")
	require.NoError(t, s.Insert(ctx, row))

	// Mutating the caller's row after insert must not leak into the store.
	row.Questions[0].Identifier = "mutated"

	got, err := s.Get(ctx, row.Key())
	require.NoError(t, err)
	assert.Equal(t, "age", got.Questions[0].Identifier)

	got.Questions[0].Identifier = "mutated again"
	again, err := s.Get(ctx, row.Key())
	require.NoError(t, err)
	assert.Equal(t, "age", again.Questions[0].Identifier)
}

func testConcurrentPutsOneWinner(t *testing.T, s store.Store) {
	ctx := context.Background()
	row := NewRow("g1", 1000, "S1")
	require.NoError(t, s.Insert(ctx, row))

	const writers = 8
	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next := row.Clone()
			next.Name = "writer"
			next.Version = 2
			err := s.Put(ctx, next, 1)
			switch {
			case err == nil:
				wins.Add(1)
			case assert.ErrorIs(t, err, store.ErrVersionConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(writers-1), conflicts.Load())
}

func testConcurrentInsertsOneWinner(t *testing.T, s store.Store) {
	ctx := context.Background()

	const writers = 8
	var wins, exists atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Insert(ctx, NewRow("race", 5000, "S1"))
			switch {
			case err == nil:
				wins.Add(1)
			case assert.ErrorIs(t, err, store.ErrExists):
				exists.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(writers-1), exists.Load())
}
