// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/danielhkuo/surveystore/cliparse"
	"github.com/danielhkuo/surveystore/models"
	"github.com/danielhkuo/surveystore/surveys"
	"github.com/danielhkuo/surveystore/testutil"
)

func setupSurveyHandler(t *testing.T) (*SurveyHandler, *surveys.Repository, cliparse.Config) {
	t.Helper()
	cfg := testutil.GetTestConfig()
	repo := testutil.NewTestRepo(t)
	return NewSurveyHandler(repo, cfg), repo, cfg
}

// surveyRequest builds a request for a /studies/{study}/surveys/{guid}/{versionedOn} route
func surveyRequest(method, suffix string, s models.Survey, body interface{}, headers map[string]string) *http.Request {
	v := strconv.FormatInt(s.VersionedOn, 10)
	req := testutil.MakeRequest(method, "/studies/"+s.StudyKey+"/surveys/"+s.GUID+"/"+v+suffix, body, headers)
	req.SetPathValue("study", s.StudyKey)
	req.SetPathValue("guid", s.GUID)
	req.SetPathValue("versionedOn", v)
	return req
}

func TestCreateSurvey(t *testing.T) {
	h, _, cfg := setupSurveyHandler(t)

	body := models.CreateSurveyRequest{
		Identifier: "intake",
		Name:       "Intake form",
		Questions:  []models.SurveyQuestion{{Identifier: "age"}},
	}
	req := testutil.MakeRequest("POST", "/studies/s1/surveys", body, testutil.AdminHeaders(cfg, "s1"))
	req.SetPathValue("study", "s1")
	w := httptest.NewRecorder()

	h.CreateSurvey(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)

	var got models.Survey
	testutil.AssertJSON(t, w, &got)

	if got.GUID == "" {
		t.Error("expected a generated guid")
	}
	if got.StudyKey != "s1" {
		t.Errorf("expected studyKey from path, got %q", got.StudyKey)
	}
	if got.Version != 1 || got.Published {
		t.Errorf("expected unpublished version 1, got version %d published %v", got.Version, got.Published)
	}
	if len(got.Questions) != 1 || got.Questions[0].GUID == "" {
		t.Errorf("expected one question with a guid, got %+v", got.Questions)
	}
}

func TestCreateSurvey_UnitSpelling(t *testing.T) {
	h, _, cfg := setupSurveyHandler(t)

	body := map[string]interface{}{
		"identifier": "intake",
		"questions": []map[string]string{
			{"identifier": "volume", "unit": "CUBIC_CENTIMETERS"},
		},
	}
	req := testutil.MakeRequest("POST", "/studies/s1/surveys", body, testutil.AdminHeaders(cfg, "s1"))
	req.SetPathValue("study", "s1")
	w := httptest.NewRecorder()

	h.CreateSurvey(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)

	var got models.Survey
	testutil.AssertJSON(t, w, &got)
	if len(got.Questions) != 1 || got.Questions[0].Unit != models.UnitCubicCentimeters {
		t.Errorf("expected unit %q, got %+v", models.UnitCubicCentimeters, got.Questions)
	}
}

func TestCreateSurvey_NoQuestions(t *testing.T) {
	h, _, cfg := setupSurveyHandler(t)

	body := models.CreateSurveyRequest{Identifier: "intake"}
	req := testutil.MakeRequest("POST", "/studies/s1/surveys", body, testutil.AdminHeaders(cfg, "s1"))
	req.SetPathValue("study", "s1")
	w := httptest.NewRecorder()

	h.CreateSurvey(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)
	if !strings.Contains(w.Body.String(), `"questions":[]`) {
		t.Errorf("expected empty question list, got %s", w.Body.String())
	}
}

func TestCreateSurvey_AdminKey(t *testing.T) {
	h, _, cfg := setupSurveyHandler(t)

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"missing key", nil},
		{"garbage key", map[string]string{"X-Admin-Key": "nope"}},
		{"key of another study", testutil.AdminHeaders(cfg, "other")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := models.CreateSurveyRequest{Identifier: "intake"}
			req := testutil.MakeRequest("POST", "/studies/s1/surveys", body, tt.headers)
			req.SetPathValue("study", "s1")
			w := httptest.NewRecorder()

			h.CreateSurvey(w, req)

			testutil.AssertStatus(t, w, http.StatusUnauthorized)
		})
	}
}

func TestCreateSurvey_BadInput(t *testing.T) {
	h, _, cfg := setupSurveyHandler(t)

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/studies/s1/surveys", nil)
		req.SetPathValue("study", "s1")
		req.Header.Set("X-Admin-Key", testutil.AdminHeaders(cfg, "s1")["X-Admin-Key"])
		w := httptest.NewRecorder()

		h.CreateSurvey(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("validation reports fields", func(t *testing.T) {
		body := models.CreateSurveyRequest{
			Identifier: "  ",
			Questions:  []models.SurveyQuestion{{Identifier: "q", Unit: "furlongs"}},
		}
		req := testutil.MakeRequest("POST", "/studies/s1/surveys", body, testutil.AdminHeaders(cfg, "s1"))
		req.SetPathValue("study", "s1")
		w := httptest.NewRecorder()

		h.CreateSurvey(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)

		var resp models.ErrorResponse
		testutil.AssertJSON(t, w, &resp)
		for _, field := range []string{"identifier", "questions[0].unit"} {
			if _, ok := resp.Fields[field]; !ok {
				t.Errorf("expected violation for %s, got %v", field, resp.Fields)
			}
		}
	})
}

func TestCreateSurvey_ExistingGUID(t *testing.T) {
	h, repo, cfg := setupSurveyHandler(t)
	existing := testutil.CreateTestSurvey(t, repo, "s1")

	// Same guid is allowed; the new row gets a later versionedOn
	body := models.CreateSurveyRequest{GUID: existing.GUID, Identifier: "again"}
	req := testutil.MakeRequest("POST", "/studies/s1/surveys", body, testutil.AdminHeaders(cfg, "s1"))
	req.SetPathValue("study", "s1")
	w := httptest.NewRecorder()

	h.CreateSurvey(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)

	var got models.Survey
	testutil.AssertJSON(t, w, &got)
	if got.GUID != existing.GUID || got.VersionedOn <= existing.VersionedOn {
		t.Errorf("expected a later version of %s, got %s@%d", existing.GUID, got.GUID, got.VersionedOn)
	}
}

func TestGetSurvey(t *testing.T) {
	h, repo, _ := setupSurveyHandler(t)
	s := testutil.CreateTestSurvey(t, repo, "s1")

	w := httptest.NewRecorder()
	h.GetSurvey(w, surveyRequest("GET", "", s, nil, nil))

	testutil.AssertStatus(t, w, http.StatusOK)

	var got models.Survey
	testutil.AssertJSON(t, w, &got)
	if got.GUID != s.GUID || got.VersionedOn != s.VersionedOn || len(got.Questions) != 2 {
		t.Errorf("unexpected survey: %+v", got)
	}
}

func TestGetSurvey_NotFound(t *testing.T) {
	h, repo, _ := setupSurveyHandler(t)
	s := testutil.CreateTestSurvey(t, repo, "s1")

	tests := []struct {
		name string
		s    models.Survey
		code int
	}{
		{"unknown guid", models.Survey{StudyKey: "s1", GUID: "missing", VersionedOn: 1}, http.StatusNotFound},
		{"unknown version", models.Survey{StudyKey: "s1", GUID: s.GUID, VersionedOn: s.VersionedOn + 1}, http.StatusNotFound},
		{"other study", models.Survey{StudyKey: "s2", GUID: s.GUID, VersionedOn: s.VersionedOn}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.GetSurvey(w, surveyRequest("GET", "", tt.s, nil, nil))
			testutil.AssertStatus(t, w, tt.code)
		})
	}
}

func TestGetSurvey_BadVersionedOn(t *testing.T) {
	h, _, _ := setupSurveyHandler(t)

	req := httptest.NewRequest("GET", "/studies/s1/surveys/g/abc", nil)
	req.SetPathValue("study", "s1")
	req.SetPathValue("guid", "g")
	req.SetPathValue("versionedOn", "abc")
	w := httptest.NewRecorder()

	h.GetSurvey(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestUpdateSurvey(t *testing.T) {
	h, repo, cfg := setupSurveyHandler(t)
	s := testutil.CreateTestSurvey(t, repo, "s1")

	body := models.UpdateSurveyRequest{
		Identifier: "daily-checkin",
		Name:       "Renamed",
		Version:    s.Version,
		Questions:  s.Questions[:1],
	}
	w := httptest.NewRecorder()
	h.UpdateSurvey(w, surveyRequest("POST", "", s, body, testutil.AdminHeaders(cfg, "s1")))

	testutil.AssertStatus(t, w, http.StatusOK)

	var got models.Survey
	testutil.AssertJSON(t, w, &got)
	if got.Name != "Renamed" || got.Version != s.Version+1 || len(got.Questions) != 1 {
		t.Errorf("update not applied: %+v", got)
	}
	if got.VersionedOn != s.VersionedOn || got.CreatedOn != s.CreatedOn {
		t.Error("update must not change the key or createdOn")
	}
}

func TestUpdateSurvey_Conflicts(t *testing.T) {
	h, repo, cfg := setupSurveyHandler(t)

	t.Run("stale version", func(t *testing.T) {
		s := testutil.CreateTestSurvey(t, repo, "s1")
		body := models.UpdateSurveyRequest{Identifier: "x", Version: s.Version + 5}

		w := httptest.NewRecorder()
		h.UpdateSurvey(w, surveyRequest("POST", "", s, body, testutil.AdminHeaders(cfg, "s1")))

		testutil.AssertStatus(t, w, http.StatusConflict)
	})

	t.Run("published", func(t *testing.T) {
		s := testutil.CreateTestSurvey(t, repo, "s1")
		published, err := repo.PublishSurvey(t.Context(), s.GUID, s.VersionedOn)
		if err != nil {
			t.Fatal(err)
		}
		body := models.UpdateSurveyRequest{Identifier: "x", Version: published.Version}

		w := httptest.NewRecorder()
		h.UpdateSurvey(w, surveyRequest("POST", "", s, body, testutil.AdminHeaders(cfg, "s1")))

		testutil.AssertStatus(t, w, http.StatusConflict)
	})
}

func TestVersionSurvey(t *testing.T) {
	h, repo, cfg := setupSurveyHandler(t)
	s := testutil.CreateTestSurvey(t, repo, "s1")
	if _, err := repo.PublishSurvey(t.Context(), s.GUID, s.VersionedOn); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	h.VersionSurvey(w, surveyRequest("POST", "/version", s, nil, testutil.AdminHeaders(cfg, "s1")))

	testutil.AssertStatus(t, w, http.StatusCreated)

	var got models.Survey
	testutil.AssertJSON(t, w, &got)
	if got.GUID != s.GUID || got.VersionedOn <= s.VersionedOn {
		t.Errorf("expected a later version of %s, got %s@%d", s.GUID, got.GUID, got.VersionedOn)
	}
	if got.Published || got.Version != 1 {
		t.Errorf("new version should be an unpublished draft, got %+v", got)
	}
	for i, q := range got.Questions {
		if q.GUID != s.Questions[i].GUID {
			t.Errorf("question %d guid changed: %s != %s", i, q.GUID, s.Questions[i].GUID)
		}
	}
}

func TestPublishAndCloseSurvey(t *testing.T) {
	h, repo, cfg := setupSurveyHandler(t)
	s := testutil.CreateTestSurvey(t, repo, "s1")
	headers := testutil.AdminHeaders(cfg, "s1")

	w := httptest.NewRecorder()
	h.PublishSurvey(w, surveyRequest("POST", "/publish", s, nil, headers))
	testutil.AssertStatus(t, w, http.StatusOK)

	var published models.Survey
	testutil.AssertJSON(t, w, &published)
	if !published.Published || published.Version != s.Version+1 {
		t.Errorf("publish not applied: %+v", published)
	}

	// Publishing again is a no-op
	w = httptest.NewRecorder()
	h.PublishSurvey(w, surveyRequest("POST", "/publish", s, nil, headers))
	testutil.AssertStatus(t, w, http.StatusOK)

	var again models.Survey
	testutil.AssertJSON(t, w, &again)
	if again.Version != published.Version {
		t.Errorf("repeat publish bumped version %d -> %d", published.Version, again.Version)
	}

	w = httptest.NewRecorder()
	h.CloseSurvey(w, surveyRequest("POST", "/close", s, nil, headers))
	testutil.AssertStatus(t, w, http.StatusOK)

	var closed models.Survey
	testutil.AssertJSON(t, w, &closed)
	if closed.Published || closed.Version != published.Version+1 {
		t.Errorf("close not applied: %+v", closed)
	}
}

func TestDeleteSurvey(t *testing.T) {
	h, repo, cfg := setupSurveyHandler(t)
	headers := testutil.AdminHeaders(cfg, "s1")

	t.Run("draft", func(t *testing.T) {
		s := testutil.CreateTestSurvey(t, repo, "s1")

		w := httptest.NewRecorder()
		h.DeleteSurvey(w, surveyRequest("DELETE", "", s, nil, headers))
		testutil.AssertStatus(t, w, http.StatusNoContent)

		_, err := repo.GetSurvey(t.Context(), s.GUID, s.VersionedOn)
		if !errors.Is(err, surveys.ErrNotFound) {
			t.Errorf("expected survey gone, got %v", err)
		}
	})

	t.Run("published", func(t *testing.T) {
		s := testutil.CreateTestSurvey(t, repo, "s1")
		if _, err := repo.PublishSurvey(t.Context(), s.GUID, s.VersionedOn); err != nil {
			t.Fatal(err)
		}

		w := httptest.NewRecorder()
		h.DeleteSurvey(w, surveyRequest("DELETE", "", s, nil, headers))
		testutil.AssertStatus(t, w, http.StatusConflict)
	})

	t.Run("other study", func(t *testing.T) {
		s := testutil.CreateTestSurvey(t, repo, "s1")
		s.StudyKey = "s2"

		w := httptest.NewRecorder()
		h.DeleteSurvey(w, surveyRequest("DELETE", "", s, nil, testutil.AdminHeaders(cfg, "s2")))
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

func TestMutationsRequireAdminKey(t *testing.T) {
	h, repo, _ := setupSurveyHandler(t)
	s := testutil.CreateTestSurvey(t, repo, "s1")

	routes := []struct {
		name    string
		method  string
		suffix  string
		handler http.HandlerFunc
	}{
		{"update", "POST", "", h.UpdateSurvey},
		{"version", "POST", "/version", h.VersionSurvey},
		{"publish", "POST", "/publish", h.PublishSurvey},
		{"close", "POST", "/close", h.CloseSurvey},
		{"delete", "DELETE", "", h.DeleteSurvey},
	}

	for _, rt := range routes {
		t.Run(rt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			rt.handler(w, surveyRequest(rt.method, rt.suffix, s, models.UpdateSurveyRequest{}, nil))
			testutil.AssertStatus(t, w, http.StatusUnauthorized)
		})
	}

	// Nothing changed
	got, err := repo.GetSurvey(t.Context(), s.GUID, s.VersionedOn)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != s.Version {
		t.Errorf("unauthorized requests modified the survey: version %d", got.Version)
	}
}

func TestListSurveys(t *testing.T) {
	h, repo, _ := setupSurveyHandler(t)
	a := testutil.CreateTestSurvey(t, repo, "s1")
	testutil.CreateTestSurvey(t, repo, "s1")
	testutil.CreateTestSurvey(t, repo, "s2")
	if _, err := repo.VersionSurvey(t.Context(), a.GUID, a.VersionedOn); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/studies/s1/surveys", nil)
	req.SetPathValue("study", "s1")
	w := httptest.NewRecorder()

	h.ListSurveys(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var list models.SurveyList
	testutil.AssertJSON(t, w, &list)
	if list.Total != 3 || len(list.Items) != 3 {
		t.Fatalf("expected 3 rows in s1, got %d", list.Total)
	}
	for _, s := range list.Items {
		if s.StudyKey != "s1" {
			t.Errorf("row from study %s leaked into s1", s.StudyKey)
		}
	}
}

func TestListSurveys_EmptyStudy(t *testing.T) {
	h, _, _ := setupSurveyHandler(t)

	req := httptest.NewRequest("GET", "/studies/none/surveys", nil)
	req.SetPathValue("study", "none")
	w := httptest.NewRecorder()

	h.ListSurveys(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	if body := w.Body.String(); body != "{\"items\":[],\"total\":0}\n" {
		t.Errorf("expected empty list envelope, got %s", body)
	}
}

func TestListVersions(t *testing.T) {
	h, repo, _ := setupSurveyHandler(t)
	s := testutil.CreateTestSurvey(t, repo, "s1")
	next, err := repo.VersionSurvey(t.Context(), s.GUID, s.VersionedOn)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/studies/s1/surveys/"+s.GUID+"/versions", nil)
	req.SetPathValue("study", "s1")
	req.SetPathValue("guid", s.GUID)
	w := httptest.NewRecorder()

	h.ListVersions(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var list models.SurveyList
	testutil.AssertJSON(t, w, &list)
	if list.Total != 2 {
		t.Fatalf("expected 2 versions, got %d", list.Total)
	}
	if list.Items[0].VersionedOn != s.VersionedOn || list.Items[1].VersionedOn != next.VersionedOn {
		t.Error("versions should be ordered oldest first")
	}

	// Unknown guid
	req = httptest.NewRequest("GET", "/studies/s1/surveys/missing/versions", nil)
	req.SetPathValue("study", "s1")
	req.SetPathValue("guid", "missing")
	w = httptest.NewRecorder()

	h.ListVersions(w, req)

	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestPublishedEndpoints(t *testing.T) {
	h, repo, _ := setupSurveyHandler(t)
	ctx := t.Context()

	s := testutil.CreateTestSurvey(t, repo, "s1")
	v2, err := repo.VersionSurvey(ctx, s.GUID, s.VersionedOn)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.PublishSurvey(ctx, s.GUID, s.VersionedOn); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.PublishSurvey(ctx, v2.GUID, v2.VersionedOn); err != nil {
		t.Fatal(err)
	}
	// Draft only; must not be listed
	testutil.CreateTestSurvey(t, repo, "s1")

	req := httptest.NewRequest("GET", "/studies/s1/surveys/published", nil)
	req.SetPathValue("study", "s1")
	w := httptest.NewRecorder()

	h.ListPublished(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var list models.SurveyList
	testutil.AssertJSON(t, w, &list)
	if list.Total != 1 {
		t.Fatalf("expected 1 published survey, got %d", list.Total)
	}
	if list.Items[0].VersionedOn != v2.VersionedOn {
		t.Errorf("expected latest published version %d, got %d", v2.VersionedOn, list.Items[0].VersionedOn)
	}

	path := fmt.Sprintf("/studies/s1/surveys/%s/published", s.GUID)
	req = httptest.NewRequest("GET", path, nil)
	req.SetPathValue("study", "s1")
	req.SetPathValue("guid", s.GUID)
	w = httptest.NewRecorder()

	h.GetPublishedSurvey(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var got models.Survey
	testutil.AssertJSON(t, w, &got)
	if got.VersionedOn != v2.VersionedOn {
		t.Errorf("expected latest published version %d, got %d", v2.VersionedOn, got.VersionedOn)
	}

	req = httptest.NewRequest("GET", path, nil)
	req.SetPathValue("study", "s2")
	req.SetPathValue("guid", s.GUID)
	w = httptest.NewRecorder()

	h.GetPublishedSurvey(w, req)

	testutil.AssertStatus(t, w, http.StatusNotFound)
}
