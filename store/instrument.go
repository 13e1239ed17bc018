// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type instrumented struct {
	next     Store
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
	scanned  prometheus.Counter
}

// Instrument wraps next so every call is counted and timed. Metrics are
// registered with reg; a nil reg leaves them unregistered.
func Instrument(next Store, reg prometheus.Registerer) Store {
	factory := promauto.With(reg)
	return &instrumented{
		next: next,
		ops: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "surveystore_store_operations_total",
				Help: "Backing store operations by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "surveystore_store_operation_duration_seconds",
				Help:    "Backing store operation latency in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"op"},
		),
		scanned: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "surveystore_store_rows_scanned_total",
				Help: "Rows returned by backing store scans",
			},
		),
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExists):
		return "exists"
	case errors.Is(err, ErrVersionConflict):
		return "conflict"
	default:
		return "error"
	}
}

func (s *instrumented) observe(op string, start time.Time, err error) {
	s.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	s.ops.WithLabelValues(op, outcome(err)).Inc()
}

func (s *instrumented) Get(ctx context.Context, key Key) (Row, error) {
	start := time.Now()
	row, err := s.next.Get(ctx, key)
	s.observe("get", start, err)
	return row, err
}

func (s *instrumented) Insert(ctx context.Context, row Row) error {
	start := time.Now()
	err := s.next.Insert(ctx, row)
	s.observe("insert", start, err)
	return err
}

func (s *instrumented) Put(ctx context.Context, row Row, expected int64) error {
	start := time.Now()
	err := s.next.Put(ctx, row, expected)
	s.observe("put", start, err)
	return err
}

func (s *instrumented) Delete(ctx context.Context, key Key, expected int64) error {
	start := time.Now()
	err := s.next.Delete(ctx, key, expected)
	s.observe("delete", start, err)
	return err
}

func (s *instrumented) Scan(ctx context.Context, q Query) ([]Row, error) {
	start := time.Now()
	rows, err := s.next.Scan(ctx, q)
	s.observe("scan", start, err)
	s.scanned.Add(float64(len(rows)))
	return rows, err
}

func (s *instrumented) Close() error {
	return s.next.Close()
}
