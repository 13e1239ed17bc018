// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the survey records exchanged with callers.

# Domain Types

  - Survey: one stored version of a questionnaire
  - SurveyQuestion: a question owned by exactly one Survey version
  - SurveyKey: the (guid, versionedOn) composite key
  - Unit: unit of measure for numeric question constraints

A Survey row is identified by GUID plus VersionedOn. GUID is shared by all
versions of one logical survey; VersionedOn is a millisecond timestamp that
increases strictly within a GUID. Version is the optimistic-concurrency
counter, bumped on every successful write.

Questions are never shared between versions. Clone deep-copies a survey
including each question's Data payload:

	next := survey.Clone()
	next.Questions[0].Identifier = "changed" // survey is untouched

# Request Types

  - CreateSurveyRequest: guid (optional), identifier, name, questions
  - UpdateSurveyRequest: identifier, name, version, questions

# Response Types

  - SurveyList: items, total
  - ErrorResponse: error, message, fields

# Units

	u, err := models.ParseUnit("CUBIC_CENTIMETERS") // models.UnitCubicCentimeters

Decoding a question from JSON applies the same parsing to its unit field.
*/
package models
