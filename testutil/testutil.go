// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/surveystore/auth"
	"github.com/danielhkuo/surveystore/cliparse"
	"github.com/danielhkuo/surveystore/models"
	"github.com/danielhkuo/surveystore/store/memstore"
	"github.com/danielhkuo/surveystore/surveys"
)

// TestStudy is the study key used by the helpers below
const TestStudy = "study-1"

// NewTestRepo returns a repository over a fresh in-memory store
func NewTestRepo(t *testing.T) *surveys.Repository {
	t.Helper()

	st := memstore.New()
	t.Cleanup(func() { st.Close() })

	return surveys.NewRepository(st)
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseType: cliparse.DatabaseMemory,
		AdminKeySalt: "test-admin-salt",
	}
}

// AdminHeaders returns the headers authorizing mutations on study
func AdminHeaders(cfg cliparse.Config, study string) map[string]string {
	return map[string]string{
		auth.AdminKeyHeader: auth.GenerateAdminKey(study, cfg.AdminKeySalt),
	}
}

// CreateTestSurvey stores a draft survey with two questions in study
func CreateTestSurvey(t *testing.T, repo *surveys.Repository, study string) models.Survey {
	t.Helper()

	created, err := repo.CreateSurvey(context.Background(), models.Survey{
		StudyKey:   study,
		Identifier: "daily-checkin",
		Name:       "Daily check-in",
		Questions: []models.SurveyQuestion{
			{Identifier: "mood", Prompt: "How do you feel?"},
			{Identifier: "sleep", Prompt: "Hours slept", Unit: models.UnitHours},
		},
	})
	if err != nil {
		t.Fatalf("Failed to create test survey: %v", err)
	}

	return created
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
