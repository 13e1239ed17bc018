// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package surveys implements the versioned survey repository.

A logical survey is identified by its guid and stored as a sequence of
immutable-key rows, one per (guid, versionedOn). Each row carries its own
published flag and an optimistic-concurrency version counter.

# Construction

	repo := surveys.NewRepository(st,
		surveys.WithLogger(logger),
	)

The repository holds only its collaborators: a store.Store, a Clock, an
IDGenerator and a logger. It is safe for concurrent use.

# Lifecycle

	Unpublished -> Published -> Unpublished -> ... -> Deleted

  - CreateSurvey inserts the first row at version 1
  - UpdateSurvey rewrites an unpublished row; the caller's version must match
  - VersionSurvey copies a row to a new, later versionedOn, unpublished
  - PublishSurvey / CloseSurvey toggle the flag; repeating either is a no-op
  - DeleteSurvey removes an unpublished row

Every write goes through a compare-and-swap on the stored version, so two
writers that read the same row cannot both succeed.

# Publish Resolution

GetMostRecentlyPublishedSurveys picks, per guid, the published row with the
greatest versionedOn. Earlier published rows keep their flag but are never
returned as live.

# Errors

Failures are one of ValidationError, NotFoundError, AlreadyExistsError,
ConcurrentModificationError or PublishedError, each matching its Err*
sentinel with errors.Is. Anything else is a wrapped store failure.
*/
package surveys
