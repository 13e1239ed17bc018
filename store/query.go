// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"fmt"
)

// Field names a scannable row attribute.
type Field string

const (
	FieldStudyKey  Field = "studyKey"
	FieldGUID      Field = "guid"
	FieldPublished Field = "published"
)

// Op is a comparison operator.
type Op string

const (
	OpEq Op = "eq"
	OpNe Op = "ne"
)

// Filter is one (field, operator, value) predicate term.
type Filter struct {
	Field Field
	Op    Op
	Value any
}

// Query is a conjunction of filters. The zero Query matches every row.
type Query struct {
	Filters []Filter
}

// NewQuery starts an empty query.
func NewQuery() Query {
	return Query{}
}

// Where returns a copy of q with f appended.
func (q Query) Where(field Field, op Op, value any) Query {
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)
	q.Filters = append(filters, Filter{Field: field, Op: op, Value: value})
	return q
}

// Eq is shorthand for Where(field, OpEq, value).
func (q Query) Eq(field Field, value any) Query {
	return q.Where(field, OpEq, value)
}

// EqualityValue returns the string value of the first equality filter on
// field, letting backends pick an index.
func (q Query) EqualityValue(field Field) (string, bool) {
	for _, f := range q.Filters {
		if f.Field == field && f.Op == OpEq {
			if s, ok := f.Value.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// Validate checks every filter names a known field and operator and carries
// a value of the field's type.
func (q Query) Validate() error {
	for i, f := range q.Filters {
		switch f.Op {
		case OpEq, OpNe:
		default:
			return fmt.Errorf("store: filter %d: unknown operator %q", i, f.Op)
		}
		switch f.Field {
		case FieldStudyKey, FieldGUID:
			if _, ok := f.Value.(string); !ok {
				return fmt.Errorf("store: filter %d: %s wants a string, got %T", i, f.Field, f.Value)
			}
		case FieldPublished:
			if _, ok := f.Value.(bool); !ok {
				return fmt.Errorf("store: filter %d: %s wants a bool, got %T", i, f.Field, f.Value)
			}
		default:
			return fmt.Errorf("store: filter %d: unknown field %q", i, f.Field)
		}
	}
	return nil
}

// Matches evaluates q against row. Call Validate first; invalid filters
// never match.
func (q Query) Matches(row Row) bool {
	for _, f := range q.Filters {
		var got any
		switch f.Field {
		case FieldStudyKey:
			got = row.StudyKey
		case FieldGUID:
			got = row.GUID
		case FieldPublished:
			got = row.Published
		default:
			return false
		}
		switch f.Op {
		case OpEq:
			if got != f.Value {
				return false
			}
		case OpNe:
			if got == f.Value {
				return false
			}
		default:
			return false
		}
	}
	return true
}
