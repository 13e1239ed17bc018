// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/surveystore/auth"
	"github.com/danielhkuo/surveystore/cliparse"
	"github.com/danielhkuo/surveystore/middleware"
	"github.com/danielhkuo/surveystore/models"
	"github.com/danielhkuo/surveystore/surveys"
)

type SurveyHandler struct {
	repo *surveys.Repository
	cfg  cliparse.Config
}

func NewSurveyHandler(repo *surveys.Repository, cfg cliparse.Config) *SurveyHandler {
	return &SurveyHandler{repo: repo, cfg: cfg}
}

// CreateSurvey handles POST /studies/{study}/surveys
func (h *SurveyHandler) CreateSurvey(w http.ResponseWriter, r *http.Request) {
	study := r.PathValue("study")
	if !h.requireAdmin(w, r, study) {
		return
	}

	var req models.CreateSurveyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	created, err := h.repo.CreateSurvey(r.Context(), models.Survey{
		GUID:       req.GUID,
		StudyKey:   study,
		Identifier: req.Identifier,
		Name:       req.Name,
		Questions:  req.Questions,
	})
	if err != nil {
		writeRepoError(w, err, "failed to create survey")
		return
	}

	slog.Info("survey created", "study", study, "guid", created.GUID, "versioned_on", created.VersionedOn)

	middleware.JSONResponse(w, http.StatusCreated, created)
}

// ListSurveys handles GET /studies/{study}/surveys
// Returns every version of every survey in the study
func (h *SurveyHandler) ListSurveys(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.GetSurveys(r.Context(), r.PathValue("study"))
	if err != nil {
		writeRepoError(w, err, "failed to list surveys")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.NewSurveyList(items))
}

// ListPublished handles GET /studies/{study}/surveys/published
func (h *SurveyHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.GetMostRecentlyPublishedSurveys(r.Context(), r.PathValue("study"))
	if err != nil {
		writeRepoError(w, err, "failed to list published surveys")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.NewSurveyList(items))
}

// ListVersions handles GET /studies/{study}/surveys/{guid}/versions
func (h *SurveyHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	study, guid := r.PathValue("study"), r.PathValue("guid")

	items, err := h.repo.GetSurveyVersions(r.Context(), study, guid)
	if err != nil {
		writeRepoError(w, err, "failed to list survey versions")
		return
	}
	if len(items) == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Survey not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.NewSurveyList(items))
}

// GetPublishedSurvey handles GET /studies/{study}/surveys/{guid}/published
// Returns the live version participants should see
func (h *SurveyHandler) GetPublishedSurvey(w http.ResponseWriter, r *http.Request) {
	survey, err := h.repo.GetMostRecentlyPublishedSurvey(r.Context(), r.PathValue("study"), r.PathValue("guid"))
	if err != nil {
		writeRepoError(w, err, "failed to get published survey")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, survey)
}

// GetSurvey handles GET /studies/{study}/surveys/{guid}/{versionedOn}
func (h *SurveyHandler) GetSurvey(w http.ResponseWriter, r *http.Request) {
	survey, ok := h.loadInStudy(w, r)
	if !ok {
		return
	}

	middleware.JSONResponse(w, http.StatusOK, survey)
}

// UpdateSurvey handles POST /studies/{study}/surveys/{guid}/{versionedOn}
// The body must carry the version read most recently
func (h *SurveyHandler) UpdateSurvey(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r, r.PathValue("study")) {
		return
	}

	var req models.UpdateSurveyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	current, ok := h.loadInStudy(w, r)
	if !ok {
		return
	}

	updated, err := h.repo.UpdateSurvey(r.Context(), models.Survey{
		GUID:        current.GUID,
		VersionedOn: current.VersionedOn,
		Identifier:  req.Identifier,
		Name:        req.Name,
		Version:     req.Version,
		Questions:   req.Questions,
	})
	if err != nil {
		writeRepoError(w, err, "failed to update survey")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, updated)
}

// VersionSurvey handles POST /studies/{study}/surveys/{guid}/{versionedOn}/version
func (h *SurveyHandler) VersionSurvey(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r, r.PathValue("study")) {
		return
	}

	current, ok := h.loadInStudy(w, r)
	if !ok {
		return
	}

	created, err := h.repo.VersionSurvey(r.Context(), current.GUID, current.VersionedOn)
	if err != nil {
		writeRepoError(w, err, "failed to version survey")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, created)
}

// PublishSurvey handles POST /studies/{study}/surveys/{guid}/{versionedOn}/publish
func (h *SurveyHandler) PublishSurvey(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r, r.PathValue("study")) {
		return
	}

	current, ok := h.loadInStudy(w, r)
	if !ok {
		return
	}

	published, err := h.repo.PublishSurvey(r.Context(), current.GUID, current.VersionedOn)
	if err != nil {
		writeRepoError(w, err, "failed to publish survey")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, published)
}

// CloseSurvey handles POST /studies/{study}/surveys/{guid}/{versionedOn}/close
func (h *SurveyHandler) CloseSurvey(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r, r.PathValue("study")) {
		return
	}

	current, ok := h.loadInStudy(w, r)
	if !ok {
		return
	}

	closed, err := h.repo.CloseSurvey(r.Context(), current.GUID, current.VersionedOn)
	if err != nil {
		writeRepoError(w, err, "failed to close survey")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, closed)
}

// DeleteSurvey handles DELETE /studies/{study}/surveys/{guid}/{versionedOn}
func (h *SurveyHandler) DeleteSurvey(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r, r.PathValue("study")) {
		return
	}

	current, ok := h.loadInStudy(w, r)
	if !ok {
		return
	}

	if err := h.repo.DeleteSurvey(r.Context(), current.GUID, current.VersionedOn); err != nil {
		writeRepoError(w, err, "failed to delete survey")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SurveyHandler) requireAdmin(w http.ResponseWriter, r *http.Request, study string) bool {
	adminKey := r.Header.Get(auth.AdminKeyHeader)
	if err := auth.ValidateAdminKey(study, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return false
	}
	return true
}

// loadInStudy resolves the {guid}/{versionedOn} path to a survey owned by
// {study}. Rows of other studies are reported as missing.
func (h *SurveyHandler) loadInStudy(w http.ResponseWriter, r *http.Request) (models.Survey, bool) {
	guid := r.PathValue("guid")
	versionedOn, err := strconv.ParseInt(r.PathValue("versionedOn"), 10, 64)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "versionedOn must be an integer")
		return models.Survey{}, false
	}

	survey, err := h.repo.GetSurvey(r.Context(), guid, versionedOn)
	if err != nil {
		writeRepoError(w, err, "failed to get survey")
		return models.Survey{}, false
	}
	if survey.StudyKey != r.PathValue("study") {
		middleware.ErrorResponse(w, http.StatusNotFound, "Survey not found")
		return models.Survey{}, false
	}

	return survey, true
}
