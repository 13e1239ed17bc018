// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"strconv"
)

// Domain types

// Survey is one stored version of a questionnaire. GUID is shared by every
// version of the same logical survey; (GUID, VersionedOn) identifies the row.
type Survey struct {
	GUID        string           `json:"guid"`
	VersionedOn int64            `json:"versionedOn"`
	StudyKey    string           `json:"studyKey" validate:"notblank"`
	Identifier  string           `json:"identifier" validate:"notblank"`
	Name        string           `json:"name"`
	Published   bool             `json:"published"`
	Version     int64            `json:"version"`
	CreatedOn   int64            `json:"createdOn"`
	ModifiedOn  int64            `json:"modifiedOn"`
	Questions   []SurveyQuestion `json:"questions" validate:"dive"`
}

// SurveyQuestion belongs to exactly one Survey version.
type SurveyQuestion struct {
	GUID       string          `json:"guid"`
	Identifier string          `json:"identifier" validate:"notblank"`
	Prompt     string          `json:"prompt,omitempty"`
	Unit       Unit            `json:"unit,omitempty" validate:"omitempty,unit"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// SurveyKey is the composite primary key of a stored survey row.
type SurveyKey struct {
	GUID        string `json:"guid"`
	VersionedOn int64  `json:"versionedOn"`
}

func (k SurveyKey) String() string {
	return k.GUID + "@" + strconv.FormatInt(k.VersionedOn, 10)
}

// Key returns the survey's composite key.
func (s Survey) Key() SurveyKey {
	return SurveyKey{GUID: s.GUID, VersionedOn: s.VersionedOn}
}

// Clone returns a deep copy; questions and their data are never shared.
func (s Survey) Clone() Survey {
	out := s
	out.Questions = CloneQuestions(s.Questions)
	return out
}

// CloneQuestions deep-copies a question list. A nil list stays nil.
func CloneQuestions(qs []SurveyQuestion) []SurveyQuestion {
	if qs == nil {
		return nil
	}
	out := make([]SurveyQuestion, len(qs))
	for i, q := range qs {
		out[i] = q
		if q.Data != nil {
			out[i].Data = append(json.RawMessage(nil), q.Data...)
		}
	}
	return out
}

// Request types

type CreateSurveyRequest struct {
	GUID       string           `json:"guid,omitempty"`
	Identifier string           `json:"identifier"`
	Name       string           `json:"name"`
	Questions  []SurveyQuestion `json:"questions"`
}

type UpdateSurveyRequest struct {
	Identifier string           `json:"identifier"`
	Name       string           `json:"name"`
	Version    int64            `json:"version"`
	Questions  []SurveyQuestion `json:"questions"`
}

// Response types

// SurveyList mirrors the {items, total} envelope used for collections.
type SurveyList struct {
	Items []Survey `json:"items"`
	Total int      `json:"total"`
}

func NewSurveyList(items []Survey) SurveyList {
	if items == nil {
		items = []Survey{}
	}
	return SurveyList{Items: items, Total: len(items)}
}

// Error response

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
