// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package redisstore keeps survey rows in Redis.
//
// Each row is a JSON string at {ns}:row:{guid}:{versionedOn}. Three sets
// index the row keys: {ns}:all, {ns}:study:{studyKey} and {ns}:guid:{guid}.
// Writes use WATCH/MULTI so a row and its index entries change together,
// and a lost race surfaces as the matching store error.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/surveystore/store"
)

// DefaultNamespace prefixes every key written by the store.
const DefaultNamespace = "surveystore"

// mgetBatch bounds the keys fetched per MGET during Scan.
const mgetBatch = 200

// Store implements store.Store on a Redis client.
type Store struct {
	client *redis.Client
	ns     string
}

var _ store.Store = (*Store)(nil)

// Connect parses a redis:// URL, connects and pings.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// New wraps client. An empty namespace means DefaultNamespace.
func New(client *redis.Client, namespace string) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Store{client: client, ns: namespace}
}

func (s *Store) rowKey(k store.Key) string {
	return s.ns + ":row:" + k.GUID + ":" + strconv.FormatInt(k.VersionedOn, 10)
}

func (s *Store) allKey() string {
	return s.ns + ":all"
}

func (s *Store) studyKey(studyKey string) string {
	return s.ns + ":study:" + studyKey
}

func (s *Store) guidKey(guid string) string {
	return s.ns + ":guid:" + guid
}

func decodeRow(key string, val []byte) (store.Row, error) {
	var row store.Row
	if err := json.Unmarshal(val, &row); err != nil {
		return store.Row{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return row, nil
}

func (s *Store) load(ctx context.Context, c redis.Cmdable, key store.Key) (store.Row, error) {
	rk := s.rowKey(key)
	val, err := c.Get(ctx, rk).Bytes()
	if errors.Is(err, redis.Nil) {
		return store.Row{}, store.ErrNotFound
	}
	if err != nil {
		return store.Row{}, fmt.Errorf("get %s: %w", key, err)
	}
	return decodeRow(rk, val)
}

func (s *Store) Get(ctx context.Context, key store.Key) (store.Row, error) {
	return s.load(ctx, s.client, key)
}

func (s *Store) Insert(ctx context.Context, row store.Row) error {
	val, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode %s: %w", row.Key(), err)
	}
	rk := s.rowKey(row.Key())

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, rk).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return store.ErrExists
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rk, val, 0)
			pipe.SAdd(ctx, s.allKey(), rk)
			pipe.SAdd(ctx, s.studyKey(row.StudyKey), rk)
			pipe.SAdd(ctx, s.guidKey(row.GUID), rk)
			return nil
		})
		return err
	}, rk)

	if errors.Is(err, redis.TxFailedErr) {
		return store.ErrExists
	}
	return err
}

func (s *Store) Put(ctx context.Context, row store.Row, expected int64) error {
	val, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode %s: %w", row.Key(), err)
	}
	rk := s.rowKey(row.Key())

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := s.load(ctx, tx, row.Key())
		if err != nil {
			return err
		}
		if current.Version != expected {
			return store.ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rk, val, 0)
			if current.StudyKey != row.StudyKey {
				pipe.SRem(ctx, s.studyKey(current.StudyKey), rk)
				pipe.SAdd(ctx, s.studyKey(row.StudyKey), rk)
			}
			return nil
		})
		return err
	}, rk)

	if errors.Is(err, redis.TxFailedErr) {
		return store.ErrVersionConflict
	}
	return err
}

func (s *Store) Delete(ctx context.Context, key store.Key, expected int64) error {
	rk := s.rowKey(key)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := s.load(ctx, tx, key)
		if err != nil {
			return err
		}
		if current.Version != expected {
			return store.ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, rk)
			pipe.SRem(ctx, s.allKey(), rk)
			pipe.SRem(ctx, s.studyKey(current.StudyKey), rk)
			pipe.SRem(ctx, s.guidKey(current.GUID), rk)
			return nil
		})
		return err
	}, rk)

	if errors.Is(err, redis.TxFailedErr) {
		return store.ErrVersionConflict
	}
	return err
}

func (s *Store) Scan(ctx context.Context, q store.Query) ([]store.Row, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	index := s.allKey()
	if studyKey, ok := q.EqualityValue(store.FieldStudyKey); ok {
		index = s.studyKey(studyKey)
	} else if guid, ok := q.EqualityValue(store.FieldGUID); ok {
		index = s.guidKey(guid)
	}

	keys, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", index, err)
	}

	var out []store.Row
	for start := 0; start < len(keys); start += mgetBatch {
		end := min(start+mgetBatch, len(keys))
		batch := keys[start:end]

		vals, err := s.client.MGet(ctx, batch...).Result()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", index, err)
		}

		for i, v := range vals {
			// Deleted between SMEMBERS and MGET
			str, ok := v.(string)
			if !ok {
				continue
			}
			row, err := decodeRow(batch[i], []byte(str))
			if err != nil {
				return nil, err
			}
			if q.Matches(row) {
				out = append(out, row)
			}
		}
	}

	return out, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
