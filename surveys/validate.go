// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package surveys

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/danielhkuo/surveystore/models"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("unit", func(fl validator.FieldLevel) bool {
		return models.Unit(fl.Field().String()).Valid()
	})

	return v
}

var ruleMessages = map[string]string{
	"notblank": "must not be blank",
	"unit":     "is not a known unit",
}

// validateSurvey checks the struct tags plus the cross-field rules tags
// cannot express, and returns every violation together.
func (r *Repository) validateSurvey(s models.Survey) error {
	var violations []Violation

	err := r.validate.Struct(s)
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			msg, ok := ruleMessages[fe.Tag()]
			if !ok {
				msg = "failed " + fe.Tag()
			}
			violations = append(violations, Violation{
				Field:   fieldPath(fe.Namespace()),
				Rule:    fe.Tag(),
				Message: msg,
			})
		}
	default:
		return fmt.Errorf("validate survey: %w", err)
	}

	seen := make(map[string]int, len(s.Questions))
	for i, q := range s.Questions {
		if q.GUID != "" {
			if first, dup := seen[q.GUID]; dup {
				violations = append(violations, Violation{
					Field:   fmt.Sprintf("questions[%d].guid", i),
					Rule:    "unique",
					Message: fmt.Sprintf("duplicates questions[%d].guid", first),
				})
			} else {
				seen[q.GUID] = i
			}
		}
		if len(q.Data) > 0 && !json.Valid(q.Data) {
			violations = append(violations, Violation{
				Field:   fmt.Sprintf("questions[%d].data", i),
				Rule:    "json",
				Message: "must be valid JSON",
			})
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// fieldPath drops the leading struct name: "Survey.questions[0].identifier"
// becomes "questions[0].identifier".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
