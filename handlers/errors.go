// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/surveystore/middleware"
	"github.com/danielhkuo/surveystore/surveys"
)

// writeRepoError maps repository errors to HTTP responses. Anything
// untyped is logged under msg and answered with a bare 500.
func writeRepoError(w http.ResponseWriter, err error, msg string) {
	var verr *surveys.ValidationError
	switch {
	case errors.As(err, &verr):
		middleware.FieldErrorResponse(w, http.StatusBadRequest, "Invalid survey", verr.Fields())
	case errors.Is(err, surveys.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Survey not found")
	case errors.Is(err, surveys.ErrAlreadyExists):
		middleware.ErrorResponse(w, http.StatusConflict, "Survey version already exists")
	case errors.Is(err, surveys.ErrConcurrentModification):
		middleware.ErrorResponse(w, http.StatusConflict, "Survey was modified concurrently; reload and retry")
	case errors.Is(err, surveys.ErrPublished):
		middleware.ErrorResponse(w, http.StatusConflict, "Survey is published; close it first")
	default:
		slog.Error(msg, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
}
