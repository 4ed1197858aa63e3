package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

const feedbackSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["user_id", "item_id", "item_type", "kind"],
	"properties": {
		"user_id": {"type": "string", "format": "uuid"},
		"item_id": {"type": "string", "minLength": 1},
		"item_type": {"type": "string", "enum": ["poi", "recommendation", "trip", "activity"]},
		"kind": {"type": "string", "enum": ["like", "dislike", "save", "skip", "visit", "share", "not_interested"]},
		"rating": {"type": "number", "minimum": 0, "maximum": 5},
		"category": {"type": "string"},
		"context": {
			"type": "object",
			"properties": {
				"location": {
					"type": "object",
					"required": ["lat", "lng"],
					"properties": {
						"lat": {"type": "number", "minimum": -90, "maximum": 90},
						"lng": {"type": "number", "minimum": -180, "maximum": 180}
					}
				},
				"time_of_day": {"type": "string", "enum": ["morning", "afternoon", "evening", "night"]},
				"weather": {"type": "string"},
				"mood": {"type": "string"},
				"session_id": {"type": "string", "format": "uuid"},
				"dwell_time_sec": {"type": "number", "minimum": 0},
				"click_depth": {"type": "integer", "minimum": 0},
				"time_to_action_sec": {"type": "number", "minimum": 0},
				"scroll_percent": {"type": "number", "minimum": 0, "maximum": 100}
			}
		}
	}
}`

const quizSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"food_importance": {"type": "integer", "minimum": 0, "maximum": 5},
		"culture_importance": {"type": "integer", "minimum": 0, "maximum": 5},
		"nature_importance": {"type": "integer", "minimum": 0, "maximum": 5},
		"nightlife_importance": {"type": "integer", "minimum": 0, "maximum": 5},
		"shopping_importance": {"type": "integer", "minimum": 0, "maximum": 5},
		"adventure_level": {"type": "integer", "minimum": 0, "maximum": 5},
		"budget_range": {"type": "string", "enum": ["budget", "mid-range", "luxury", "mixed"]},
		"preferred_distance_km": {"type": "integer", "minimum": 1, "maximum": 100},
		"transport_modes": {"type": "array", "items": {"type": "string"}}
	}
}`

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// SchemaValidator checks raw request payloads against JSON schemas before
// binding. Malformed payloads are rejected at the edge so the engine only
// ever sees well-formed events.
type SchemaValidator struct {
	schemas map[string]*gojsonschema.Schema
}

func NewSchemaValidator() (*SchemaValidator, error) {
	sources := map[string]string{
		"feedback": feedbackSchema,
		"quiz":     quizSchema,
	}

	sv := &SchemaValidator{schemas: make(map[string]*gojsonschema.Schema, len(sources))}
	for name, source := range sources {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
		}
		sv.schemas[name] = schema
	}

	return sv, nil
}

func (sv *SchemaValidator) ValidateFeedback(body []byte) *ValidationResult {
	return sv.validate("feedback", body)
}

func (sv *SchemaValidator) ValidateQuiz(body []byte) *ValidationResult {
	return sv.validate("quiz", body)
}

func (sv *SchemaValidator) validate(name string, body []byte) *ValidationResult {
	schema, ok := sv.schemas[name]
	if !ok {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "schema", Message: fmt.Sprintf("schema %q not found", name)}},
		}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "body", Message: err.Error()}},
		}
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, verr := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   verr.Field(),
			Message: verr.Description(),
		})
	}

	return out
}
