// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package surveys

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/danielhkuo/surveystore/models"
	"github.com/danielhkuo/surveystore/store"
)

// maxKeyAttempts bounds how often a new row retries when another writer
// claimed the same (guid, versionedOn) first.
const maxKeyAttempts = 5

// Repository owns every survey lifecycle operation. It keeps no mutable
// state of its own; all coordination happens through the store's per-row
// compare-and-swap.
type Repository struct {
	store    store.Store
	clock    Clock
	newID    IDGenerator
	logger   *slog.Logger
	validate *validator.Validate
}

type Option func(*Repository)

func WithClock(c Clock) Option {
	return func(r *Repository) { r.clock = c }
}

func WithIDGenerator(g IDGenerator) Option {
	return func(r *Repository) { r.newID = g }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// NewRepository builds a repository over st. Defaults: MonotonicClock,
// uuid identifiers, slog.Default().
func NewRepository(st store.Store, opts ...Option) *Repository {
	r := &Repository{
		store:    st,
		clock:    NewMonotonicClock(),
		newID:    NewID,
		logger:   slog.Default(),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateSurvey persists a new unpublished version of a survey. Blank survey
// and question guids are generated. A caller-supplied VersionedOn is only
// used to reject a replay of an existing row with AlreadyExistsError; the
// stored key is always assigned above every existing version of the guid.
func (r *Repository) CreateSurvey(ctx context.Context, s models.Survey) (models.Survey, error) {
	out := s.Clone()
	if out.GUID == "" {
		out.GUID = r.newID()
	}
	if out.Questions == nil {
		out.Questions = []models.SurveyQuestion{}
	}
	r.assignQuestionGUIDs(out.Questions)
	out.Published = false
	out.Version = 1

	if err := r.validateSurvey(out); err != nil {
		return models.Survey{}, err
	}

	if out.VersionedOn != 0 {
		_, err := r.store.Get(ctx, toKey(out.Key()))
		if err == nil {
			return models.Survey{}, &AlreadyExistsError{GUID: out.GUID, VersionedOn: out.VersionedOn}
		}
		if !errors.Is(err, store.ErrNotFound) {
			return models.Survey{}, fmt.Errorf("create survey %s: %w", out.Key(), err)
		}
	}

	out.VersionedOn = 0
	out.CreatedOn = 0
	created, err := r.insertNewVersion(ctx, out, 0)
	if err != nil {
		return models.Survey{}, err
	}
	out = created

	r.logger.Info("Survey created",
		"guid", out.GUID,
		"versioned_on", out.VersionedOn,
		"study_key", out.StudyKey)

	return out, nil
}

// UpdateSurvey replaces identifier, name and questions of an unpublished
// row. s.Version must equal the stored version.
func (r *Repository) UpdateSurvey(ctx context.Context, s models.Survey) (models.Survey, error) {
	current, err := r.GetSurvey(ctx, s.GUID, s.VersionedOn)
	if err != nil {
		return models.Survey{}, err
	}

	if current.Published {
		return models.Survey{}, &PublishedError{GUID: s.GUID, VersionedOn: s.VersionedOn}
	}
	if s.Version != current.Version {
		r.logger.Warn("Stale survey update rejected",
			"guid", s.GUID,
			"versioned_on", s.VersionedOn,
			"expected", s.Version,
			"actual", current.Version)
		return models.Survey{}, &ConcurrentModificationError{
			GUID: s.GUID, VersionedOn: s.VersionedOn, Expected: s.Version, Actual: current.Version,
		}
	}

	next := current
	next.Identifier = s.Identifier
	next.Name = s.Name
	next.Questions = models.CloneQuestions(s.Questions)
	if next.Questions == nil {
		next.Questions = []models.SurveyQuestion{}
	}
	r.assignQuestionGUIDs(next.Questions)

	if err := r.validateSurvey(next); err != nil {
		return models.Survey{}, err
	}

	return r.write(ctx, next, current.Version)
}

// VersionSurvey copies the identified row into a new unpublished row of the
// same guid with a strictly greater versionedOn. The source is untouched.
func (r *Repository) VersionSurvey(ctx context.Context, guid string, versionedOn int64) (models.Survey, error) {
	src, err := r.GetSurvey(ctx, guid, versionedOn)
	if err != nil {
		return models.Survey{}, err
	}

	next := models.Survey{
		GUID:       src.GUID,
		StudyKey:   src.StudyKey,
		Identifier: src.Identifier,
		Name:       src.Name,
		Version:    1,
		CreatedOn:  src.CreatedOn,
		Questions:  models.CloneQuestions(src.Questions),
	}
	// Older rows may predate question guids
	r.assignQuestionGUIDs(next.Questions)

	created, err := r.insertNewVersion(ctx, next, src.VersionedOn)
	if err != nil {
		return models.Survey{}, err
	}

	r.logger.Info("Survey versioned",
		"guid", created.GUID,
		"from", src.VersionedOn,
		"versioned_on", created.VersionedOn)

	return created, nil
}

// PublishSurvey marks the row published. Publishing a published row
// returns it unchanged.
func (r *Repository) PublishSurvey(ctx context.Context, guid string, versionedOn int64) (models.Survey, error) {
	return r.setPublished(ctx, guid, versionedOn, true)
}

// CloseSurvey marks the row unpublished. Closing an unpublished row returns
// it unchanged.
func (r *Repository) CloseSurvey(ctx context.Context, guid string, versionedOn int64) (models.Survey, error) {
	return r.setPublished(ctx, guid, versionedOn, false)
}

func (r *Repository) setPublished(ctx context.Context, guid string, versionedOn int64, published bool) (models.Survey, error) {
	current, err := r.GetSurvey(ctx, guid, versionedOn)
	if err != nil {
		return models.Survey{}, err
	}
	if current.Published == published {
		return current, nil
	}

	next := current
	next.Published = published
	out, err := r.write(ctx, next, current.Version)
	if err != nil {
		return models.Survey{}, err
	}

	if published {
		r.logger.Info("Survey published", "guid", guid, "versioned_on", versionedOn)
	} else {
		r.logger.Info("Survey closed", "guid", guid, "versioned_on", versionedOn)
	}
	return out, nil
}

// DeleteSurvey removes an unpublished row permanently.
func (r *Repository) DeleteSurvey(ctx context.Context, guid string, versionedOn int64) error {
	current, err := r.GetSurvey(ctx, guid, versionedOn)
	if err != nil {
		return err
	}
	if current.Published {
		return &PublishedError{GUID: guid, VersionedOn: versionedOn}
	}

	// A publish or edit landing after the read bumps the version and
	// turns this into a conflict instead of deleting a live row.
	err = r.store.Delete(ctx, toKey(current.Key()), current.Version)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		return &NotFoundError{GUID: guid, VersionedOn: versionedOn}
	case errors.Is(err, store.ErrVersionConflict):
		actual := int64(-1)
		if row, gerr := r.store.Get(ctx, toKey(current.Key())); gerr == nil {
			actual = row.Version
		}
		r.logger.Warn("Concurrent survey delete lost",
			"guid", guid,
			"versioned_on", versionedOn,
			"expected", current.Version,
			"actual", actual)
		return &ConcurrentModificationError{
			GUID: guid, VersionedOn: versionedOn, Expected: current.Version, Actual: actual,
		}
	default:
		return fmt.Errorf("delete survey %s: %w", current.Key(), err)
	}

	r.logger.Info("Survey deleted", "guid", guid, "versioned_on", versionedOn)
	return nil
}

// GetSurvey looks up one row by its exact key.
func (r *Repository) GetSurvey(ctx context.Context, guid string, versionedOn int64) (models.Survey, error) {
	row, err := r.store.Get(ctx, store.Key{GUID: guid, VersionedOn: versionedOn})
	if errors.Is(err, store.ErrNotFound) {
		return models.Survey{}, &NotFoundError{GUID: guid, VersionedOn: versionedOn}
	}
	if err != nil {
		return models.Survey{}, fmt.Errorf("get survey %s@%d: %w", guid, versionedOn, err)
	}
	return fromRow(row), nil
}

// GetSurveys returns every version of every survey in the study, ordered
// by guid and then versionedOn, both ascending.
func (r *Repository) GetSurveys(ctx context.Context, studyKey string) ([]models.Survey, error) {
	rows, err := r.store.Scan(ctx, store.NewQuery().Eq(store.FieldStudyKey, studyKey))
	if err != nil {
		return nil, fmt.Errorf("list surveys of study %s: %w", studyKey, err)
	}

	out := fromRows(rows)
	slices.SortFunc(out, func(a, b models.Survey) int {
		return cmp.Or(cmp.Compare(a.GUID, b.GUID), cmp.Compare(a.VersionedOn, b.VersionedOn))
	})
	return out, nil
}

// GetSurveyVersions returns the history of one survey within the study,
// oldest first.
func (r *Repository) GetSurveyVersions(ctx context.Context, studyKey, guid string) ([]models.Survey, error) {
	rows, err := r.store.Scan(ctx, store.NewQuery().
		Eq(store.FieldStudyKey, studyKey).
		Eq(store.FieldGUID, guid))
	if err != nil {
		return nil, fmt.Errorf("list versions of survey %s: %w", guid, err)
	}

	out := fromRows(rows)
	slices.SortFunc(out, func(a, b models.Survey) int {
		return cmp.Compare(a.VersionedOn, b.VersionedOn)
	})
	return out, nil
}

// write stores next with Version+1 if the row still carries expected.
func (r *Repository) write(ctx context.Context, next models.Survey, expected int64) (models.Survey, error) {
	next.Version = expected + 1
	next.ModifiedOn = r.clock.Now()

	err := r.store.Put(ctx, toRow(next), expected)
	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, store.ErrNotFound):
		return models.Survey{}, &NotFoundError{GUID: next.GUID, VersionedOn: next.VersionedOn}
	case errors.Is(err, store.ErrVersionConflict):
		actual := int64(-1)
		if row, gerr := r.store.Get(ctx, toKey(next.Key())); gerr == nil {
			actual = row.Version
		}
		r.logger.Warn("Concurrent survey write lost",
			"guid", next.GUID,
			"versioned_on", next.VersionedOn,
			"expected", expected,
			"actual", actual)
		return models.Survey{}, &ConcurrentModificationError{
			GUID: next.GUID, VersionedOn: next.VersionedOn, Expected: expected, Actual: actual,
		}
	default:
		return models.Survey{}, fmt.Errorf("write survey %s: %w", next.Key(), err)
	}
}

// insertNewVersion inserts s under a fresh versionedOn greater than floor
// and every existing version of s.GUID, retrying when a concurrent writer
// takes the chosen key first.
func (r *Repository) insertNewVersion(ctx context.Context, s models.Survey, floor int64) (models.Survey, error) {
	for attempt := 1; attempt <= maxKeyAttempts; attempt++ {
		versionedOn, err := r.nextVersionedOn(ctx, s.GUID, floor)
		if err != nil {
			return models.Survey{}, err
		}

		s.VersionedOn = versionedOn
		s.ModifiedOn = versionedOn
		if s.CreatedOn == 0 {
			s.CreatedOn = versionedOn
		}

		err = r.store.Insert(ctx, toRow(s))
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, store.ErrExists) {
			return models.Survey{}, fmt.Errorf("insert survey %s: %w", s.Key(), err)
		}

		r.logger.Warn("Survey version key taken, retrying",
			"guid", s.GUID,
			"versioned_on", versionedOn,
			"attempt", attempt)
	}

	return models.Survey{}, &ConcurrentModificationError{GUID: s.GUID, VersionedOn: floor, Expected: -1, Actual: -1}
}

func (r *Repository) nextVersionedOn(ctx context.Context, guid string, floor int64) (int64, error) {
	rows, err := r.store.Scan(ctx, store.NewQuery().Eq(store.FieldGUID, guid))
	if err != nil {
		return 0, fmt.Errorf("list versions of survey %s: %w", guid, err)
	}

	latest := floor
	for _, row := range rows {
		latest = max(latest, row.VersionedOn)
	}
	return max(r.clock.Now(), latest+1), nil
}

func (r *Repository) assignQuestionGUIDs(qs []models.SurveyQuestion) {
	for i := range qs {
		if qs[i].GUID == "" {
			qs[i].GUID = r.newID()
		}
	}
}
