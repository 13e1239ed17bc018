// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package surveys

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is. Every typed error below matches exactly one.
var (
	ErrValidation             = errors.New("survey validation failed")
	ErrNotFound               = errors.New("survey not found")
	ErrAlreadyExists          = errors.New("survey already exists")
	ErrConcurrentModification = errors.New("survey was modified concurrently")
	ErrPublished              = errors.New("survey is published")
)

// Violation is one field-level validation failure.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists every violation found in one input.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Fields maps each violated field to its message.
func (e *ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.Violations))
	for _, v := range e.Violations {
		out[v.Field] = v.Message
	}
	return out
}

// NotFoundError carries the key that was asked for. VersionedOn is zero
// when no specific version was requested.
type NotFoundError struct {
	GUID        string
	VersionedOn int64
}

func (e *NotFoundError) Error() string {
	if e.VersionedOn == 0 {
		return fmt.Sprintf("%s: guid %s", ErrNotFound, e.GUID)
	}
	return fmt.Sprintf("%s: guid %s versionedOn %d", ErrNotFound, e.GUID, e.VersionedOn)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type AlreadyExistsError struct {
	GUID        string
	VersionedOn int64
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s: guid %s versionedOn %d", ErrAlreadyExists, e.GUID, e.VersionedOn)
}

func (e *AlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }

// ConcurrentModificationError reports a failed optimistic-concurrency
// check. Actual is the stored version when it could be read, else -1.
type ConcurrentModificationError struct {
	GUID        string
	VersionedOn int64
	Expected    int64
	Actual      int64
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s: guid %s versionedOn %d (expected version %d, found %d)",
		ErrConcurrentModification, e.GUID, e.VersionedOn, e.Expected, e.Actual)
}

func (e *ConcurrentModificationError) Is(target error) bool {
	return target == ErrConcurrentModification
}

// PublishedError rejects an update or delete on a published row.
type PublishedError struct {
	GUID        string
	VersionedOn int64
}

func (e *PublishedError) Error() string {
	return fmt.Sprintf("%s: guid %s versionedOn %d must be closed first", ErrPublished, e.GUID, e.VersionedOn)
}

func (e *PublishedError) Is(target error) bool { return target == ErrPublished }
