// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/surveystore/cliparse"
	"github.com/danielhkuo/surveystore/handlers"
	"github.com/danielhkuo/surveystore/middleware"
	"github.com/danielhkuo/surveystore/surveys"
)

func NewRouter(repo *surveys.Repository, cfg cliparse.Config, reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	metrics := middleware.NewHTTPMetrics(reg)

	// Every API route is logged and labelled by its pattern
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, middleware.WithLogging(metrics.Instrument(pattern, h)))
	}

	surveyHandler := handlers.NewSurveyHandler(repo, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	// Study-wide views
	handle("POST /studies/{study}/surveys", surveyHandler.CreateSurvey)
	handle("GET /studies/{study}/surveys", surveyHandler.ListSurveys)
	handle("GET /studies/{study}/surveys/published", surveyHandler.ListPublished)

	// One survey across its versions
	handle("GET /studies/{study}/surveys/{guid}/versions", surveyHandler.ListVersions)
	handle("GET /studies/{study}/surveys/{guid}/published", surveyHandler.GetPublishedSurvey)

	// One stored version
	handle("GET /studies/{study}/surveys/{guid}/{versionedOn}", surveyHandler.GetSurvey)
	handle("POST /studies/{study}/surveys/{guid}/{versionedOn}", surveyHandler.UpdateSurvey)
	handle("DELETE /studies/{study}/surveys/{guid}/{versionedOn}", surveyHandler.DeleteSurvey)
	handle("POST /studies/{study}/surveys/{guid}/{versionedOn}/version", surveyHandler.VersionSurvey)
	handle("POST /studies/{study}/surveys/{guid}/{versionedOn}/publish", surveyHandler.PublishSurvey)
	handle("POST /studies/{study}/surveys/{guid}/{versionedOn}/close", surveyHandler.CloseSurvey)

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("surveystore API v1"))
	})

	return mux
}
