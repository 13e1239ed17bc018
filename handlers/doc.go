// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the surveystore API.

# Handler Types

SurveyHandler serves every survey route. It is created with the repository
and config:

	surveyHandler := handlers.NewSurveyHandler(repo, cfg)

# Survey Lifecycle

A row is a draft until published. Drafts can be edited or deleted; a
published row must be closed first. New revisions are cut from any row:

	POST /studies/{study}/surveys                          → CreateSurvey
	POST /studies/{study}/surveys/{guid}/{versionedOn}         → UpdateSurvey (drafts only)
	POST /studies/{study}/surveys/{guid}/{versionedOn}/version → VersionSurvey
	POST /studies/{study}/surveys/{guid}/{versionedOn}/publish → PublishSurvey
	POST /studies/{study}/surveys/{guid}/{versionedOn}/close   → CloseSurvey

Mutations require the X-Admin-Key header for the study in the path.
UpdateSurvey bodies carry the version last read; a stale version is
answered with 409.

# Study Scoping

A row belonging to another study is reported as 404, never 403.

# Error Responses

	400: invalid JSON, bad versionedOn, validation (with per-field details)
	401: missing or wrong admin key
	404: no such survey in this study
	409: version conflict, duplicate key, or row is published
	500: backend failure
*/
package handlers
