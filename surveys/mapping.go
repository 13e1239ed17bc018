// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package surveys

import (
	"encoding/json"

	"github.com/danielhkuo/surveystore/models"
	"github.com/danielhkuo/surveystore/store"
)

func toKey(k models.SurveyKey) store.Key {
	return store.Key{GUID: k.GUID, VersionedOn: k.VersionedOn}
}

func toRow(s models.Survey) store.Row {
	row := store.Row{
		GUID:        s.GUID,
		VersionedOn: s.VersionedOn,
		StudyKey:    s.StudyKey,
		Identifier:  s.Identifier,
		Name:        s.Name,
		Published:   s.Published,
		Version:     s.Version,
		CreatedOn:   s.CreatedOn,
		ModifiedOn:  s.ModifiedOn,
	}
	if s.Questions != nil {
		row.Questions = make([]store.QuestionRow, len(s.Questions))
		for i, q := range s.Questions {
			row.Questions[i] = store.QuestionRow{
				GUID:       q.GUID,
				Identifier: q.Identifier,
				Prompt:     q.Prompt,
				Unit:       string(q.Unit),
				Data:       cloneData(q.Data),
			}
		}
	}
	return row
}

func fromRow(row store.Row) models.Survey {
	s := models.Survey{
		GUID:        row.GUID,
		VersionedOn: row.VersionedOn,
		StudyKey:    row.StudyKey,
		Identifier:  row.Identifier,
		Name:        row.Name,
		Published:   row.Published,
		Version:     row.Version,
		CreatedOn:   row.CreatedOn,
		ModifiedOn:  row.ModifiedOn,
		Questions:   make([]models.SurveyQuestion, len(row.Questions)),
	}
	for i, q := range row.Questions {
		s.Questions[i] = models.SurveyQuestion{
			GUID:       q.GUID,
			Identifier: q.Identifier,
			Prompt:     q.Prompt,
			Unit:       models.Unit(q.Unit),
			Data:       cloneData(q.Data),
		}
	}
	return s
}

func fromRows(rows []store.Row) []models.Survey {
	out := make([]models.Survey, len(rows))
	for i, row := range rows {
		out[i] = fromRow(row)
	}
	return out
}

func cloneData(b json.RawMessage) json.RawMessage {
	if b == nil {
		return nil
	}
	return append(json.RawMessage(nil), b...)
}
