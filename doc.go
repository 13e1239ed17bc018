// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the surveystore API server.

surveystore keeps versioned survey definitions for research studies. Every
edit of a draft bumps an optimistic-concurrency version; every new revision
of a survey is a separate row keyed by (guid, versionedOn), so published
versions stay readable while the next one is drafted.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	ADMIN_KEY_SALT=... DATABASE_URL=surveys.db go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -admin-salt ...

# Configuration

Required settings:

  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC
  - DATABASE_URL (-d): DSN, file, directory or redis:// URL
    (not needed for -t memory)

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): memory, sqlite, postgres, badger or redis
    (default: sqlite)
  - SURVEYSTORE_CONFIG (-c): YAML file with the same settings

# Architecture

  - surveys: Repository with the survey lifecycle rules
  - store: Backend interface, query model and metrics decorator
  - store/memstore, db, store/badgerstore, store/redisstore: backends
  - handlers: HTTP request handlers
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, metrics, JSON helpers
  - models: Domain and request/response types
  - auth: Admin key generation and validation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
