// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the surveystore API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(repo, cfg, reg)

The registry receives per-route request metrics and is served on /metrics.

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Study views:

	GET  /studies/{study}/surveys           - Every stored version
	POST /studies/{study}/surveys           - Create survey (admin)
	GET  /studies/{study}/surveys/published - Live version of each survey

One survey:

	GET /studies/{study}/surveys/{guid}/versions  - All versions, oldest first
	GET /studies/{study}/surveys/{guid}/published - Live version

One version (mutations require X-Admin-Key):

	GET    /studies/{study}/surveys/{guid}/{versionedOn}
	POST   /studies/{study}/surveys/{guid}/{versionedOn}         - Update draft
	DELETE /studies/{study}/surveys/{guid}/{versionedOn}         - Delete draft
	POST   /studies/{study}/surveys/{guid}/{versionedOn}/version - New version
	POST   /studies/{study}/surveys/{guid}/{versionedOn}/publish
	POST   /studies/{study}/surveys/{guid}/{versionedOn}/close
*/
package router
