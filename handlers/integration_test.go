// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/surveystore/models"
	"github.com/danielhkuo/surveystore/testutil"
)

// TestFullSurveyLifecycle tests the complete end-to-end workflow:
// 1. Create a draft
// 2. Edit the draft
// 3. Publish it
// 4. Participants see it as the published survey
// 5. Cut a new version and edit it while v1 stays live
// 6. Publish v2; it replaces v1
// 7. Close v2; v1 becomes live again
// 8. Close v1 and delete it
func TestFullSurveyLifecycle(t *testing.T) {
	h, _, cfg := setupSurveyHandler(t)
	admin := testutil.AdminHeaders(cfg, "s1")

	// Step 1: Create a draft
	createReq := models.CreateSurveyRequest{
		Identifier: "sleep-diary",
		Name:       "Sleep diary",
		Questions: []models.SurveyQuestion{
			{Identifier: "bedtime", Prompt: "When did you go to bed?"},
		},
	}
	req := testutil.MakeRequest("POST", "/studies/s1/surveys", createReq, admin)
	req.SetPathValue("study", "s1")
	w := httptest.NewRecorder()
	h.CreateSurvey(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Step 1 - Create survey failed: %d - %s", w.Code, w.Body.String())
	}

	var v1 models.Survey
	testutil.AssertJSON(t, w, &v1)
	t.Logf("Step 1 - Created survey: %s@%d", v1.GUID, v1.VersionedOn)

	// Step 2: Edit the draft
	updateReq := models.UpdateSurveyRequest{
		Identifier: v1.Identifier,
		Name:       v1.Name,
		Version:    v1.Version,
		Questions: append(v1.Questions, models.SurveyQuestion{
			Identifier: "duration", Prompt: "How long did you sleep?", Unit: models.UnitHours,
		}),
	}
	w = httptest.NewRecorder()
	h.UpdateSurvey(w, surveyRequest("POST", "", v1, updateReq, admin))

	if w.Code != http.StatusOK {
		t.Fatalf("Step 2 - Update failed: %d - %s", w.Code, w.Body.String())
	}
	testutil.AssertJSON(t, w, &v1)
	if len(v1.Questions) != 2 {
		t.Fatalf("Step 2 - Expected 2 questions, got %d", len(v1.Questions))
	}

	// Step 3: Publish it
	w = httptest.NewRecorder()
	h.PublishSurvey(w, surveyRequest("POST", "/publish", v1, nil, admin))
	if w.Code != http.StatusOK {
		t.Fatalf("Step 3 - Publish failed: %d - %s", w.Code, w.Body.String())
	}
	testutil.AssertJSON(t, w, &v1)

	// Step 4: Participants see it
	assertPublished(t, h, v1.GUID, v1.VersionedOn)

	// Step 5: Cut a new version and edit it while v1 stays live
	w = httptest.NewRecorder()
	h.VersionSurvey(w, surveyRequest("POST", "/version", v1, nil, admin))
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 5 - Version failed: %d - %s", w.Code, w.Body.String())
	}

	var v2 models.Survey
	testutil.AssertJSON(t, w, &v2)

	updateReq = models.UpdateSurveyRequest{
		Identifier: v2.Identifier,
		Name:       "Sleep diary (revised)",
		Version:    v2.Version,
		Questions:  v2.Questions,
	}
	w = httptest.NewRecorder()
	h.UpdateSurvey(w, surveyRequest("POST", "", v2, updateReq, admin))
	if w.Code != http.StatusOK {
		t.Fatalf("Step 5 - Update v2 failed: %d - %s", w.Code, w.Body.String())
	}
	assertPublished(t, h, v1.GUID, v1.VersionedOn)

	// Step 6: Publish v2
	w = httptest.NewRecorder()
	h.PublishSurvey(w, surveyRequest("POST", "/publish", v2, nil, admin))
	if w.Code != http.StatusOK {
		t.Fatalf("Step 6 - Publish v2 failed: %d - %s", w.Code, w.Body.String())
	}
	assertPublished(t, h, v2.GUID, v2.VersionedOn)

	// Step 7: Close v2
	w = httptest.NewRecorder()
	h.CloseSurvey(w, surveyRequest("POST", "/close", v2, nil, admin))
	if w.Code != http.StatusOK {
		t.Fatalf("Step 7 - Close v2 failed: %d - %s", w.Code, w.Body.String())
	}
	assertPublished(t, h, v1.GUID, v1.VersionedOn)

	// Step 8: A published row cannot be deleted until it is closed
	w = httptest.NewRecorder()
	h.DeleteSurvey(w, surveyRequest("DELETE", "", v1, nil, admin))
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = httptest.NewRecorder()
	h.CloseSurvey(w, surveyRequest("POST", "/close", v1, nil, admin))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = httptest.NewRecorder()
	h.DeleteSurvey(w, surveyRequest("DELETE", "", v1, nil, admin))
	testutil.AssertStatus(t, w, http.StatusNoContent)

	// Only the closed v2 remains
	req = httptest.NewRequest("GET", "/studies/s1/surveys/"+v1.GUID+"/versions", nil)
	req.SetPathValue("study", "s1")
	req.SetPathValue("guid", v1.GUID)
	w = httptest.NewRecorder()
	h.ListVersions(w, req)

	var list models.SurveyList
	testutil.AssertJSON(t, w, &list)
	if list.Total != 1 || list.Items[0].VersionedOn != v2.VersionedOn {
		t.Errorf("Step 8 - Expected only v2 to remain, got %+v", list.Items)
	}

	req = httptest.NewRequest("GET", "/studies/s1/surveys/published", nil)
	req.SetPathValue("study", "s1")
	w = httptest.NewRecorder()
	h.ListPublished(w, req)

	testutil.AssertJSON(t, w, &list)
	if list.Total != 0 {
		t.Errorf("Step 8 - Expected nothing published, got %d", list.Total)
	}
}

func assertPublished(t *testing.T, h *SurveyHandler, guid string, versionedOn int64) {
	t.Helper()

	req := httptest.NewRequest("GET", "/studies/s1/surveys/"+guid+"/published", nil)
	req.SetPathValue("study", "s1")
	req.SetPathValue("guid", guid)
	w := httptest.NewRecorder()
	h.GetPublishedSurvey(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("get published: %d - %s", w.Code, w.Body.String())
	}

	var got models.Survey
	testutil.AssertJSON(t, w, &got)
	if got.VersionedOn != versionedOn {
		t.Errorf("expected published version %d, got %d", versionedOn, got.VersionedOn)
	}
}
