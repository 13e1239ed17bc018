// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package surveys

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/danielhkuo/surveystore/models"
	"github.com/danielhkuo/surveystore/store"
)

// GetMostRecentlyPublishedSurveys returns the live version of every survey
// in the study: per guid, the published row with the greatest versionedOn.
// Surveys created later come first. Guids with no published row are left
// out.
func (r *Repository) GetMostRecentlyPublishedSurveys(ctx context.Context, studyKey string) ([]models.Survey, error) {
	rows, err := r.store.Scan(ctx, store.NewQuery().Eq(store.FieldStudyKey, studyKey))
	if err != nil {
		return nil, fmt.Errorf("list surveys of study %s: %w", studyKey, err)
	}

	live, oldest := resolvePublished(rows)

	out := make([]models.Survey, 0, len(live))
	for _, row := range live {
		out = append(out, fromRow(row))
	}
	slices.SortFunc(out, func(a, b models.Survey) int {
		return cmp.Or(cmp.Compare(oldest[b.GUID], oldest[a.GUID]), cmp.Compare(a.GUID, b.GUID))
	})
	return out, nil
}

// GetMostRecentlyPublishedSurvey returns the live version of one survey,
// or a NotFoundError when none of its versions is published.
func (r *Repository) GetMostRecentlyPublishedSurvey(ctx context.Context, studyKey, guid string) (models.Survey, error) {
	rows, err := r.store.Scan(ctx, store.NewQuery().
		Eq(store.FieldStudyKey, studyKey).
		Eq(store.FieldGUID, guid).
		Eq(store.FieldPublished, true))
	if err != nil {
		return models.Survey{}, fmt.Errorf("find published survey %s: %w", guid, err)
	}

	live, _ := resolvePublished(rows)
	row, ok := live[guid]
	if !ok {
		return models.Survey{}, &NotFoundError{GUID: guid}
	}
	return fromRow(row), nil
}

// resolvePublished groups rows by guid. live holds the latest published
// row of each guid that has one; oldest holds each guid's earliest
// versionedOn across all rows, published or not.
func resolvePublished(rows []store.Row) (live map[string]store.Row, oldest map[string]int64) {
	live = make(map[string]store.Row)
	oldest = make(map[string]int64)

	for _, row := range rows {
		if first, seen := oldest[row.GUID]; !seen || row.VersionedOn < first {
			oldest[row.GUID] = row.VersionedOn
		}
		if !row.Published {
			continue
		}
		if cur, ok := live[row.GUID]; !ok || row.VersionedOn > cur.VersionedOn {
			live[row.GUID] = row
		}
	}
	return live, oldest
}
