// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package surveys

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Clock yields millisecond timestamps for versionedOn.
type Clock interface {
	Now() int64
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() int64

func (f ClockFunc) Now() int64 { return f() }

// MonotonicClock reads wall time in milliseconds but never returns a value
// less than or equal to one it already returned.
type MonotonicClock struct {
	last atomic.Int64
	wall func() time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{wall: time.Now}
}

func (c *MonotonicClock) Now() int64 {
	for {
		prev := c.last.Load()
		next := c.wall().UnixMilli()
		if next <= prev {
			next = prev + 1
		}
		if c.last.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// IDGenerator produces process-unique opaque identifiers.
type IDGenerator func() string

// NewID is the default IDGenerator.
func NewID() string {
	return uuid.NewString()
}
