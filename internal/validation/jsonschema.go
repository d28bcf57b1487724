package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/planloom/planloom/pkg/schema"
)

// planSchemaJSON is the JSON Schema for PlanSpec validation at the tool
// boundary. Embedded as a constant to avoid filesystem dependencies. The
// renderer itself stays permissive; this only rejects documents that are
// structurally malformed, not plans that are semantically questionable.
const planSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://planloom.dev/schemas/plan.json",
  "type": "object",
  "required": ["name", "trigger"],
  "properties": {
    "name": {
      "type": "string",
      "minLength": 1
    },
    "trigger": {
      "type": "string",
      "enum": ["manual", "cron", "webhook"]
    },
    "cron_expression": {
      "type": "string"
    },
    "steps": {
      "type": "array",
      "items": { "$ref": "#/$defs/step" }
    },
    "inputs": {
      "type": "object"
    }
  },
  "additionalProperties": false,
  "$defs": {
    "step": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "id": {
          "type": "string",
          "minLength": 1
        },
        "type": {
          "type": "string",
          "minLength": 1
        },
        "parameters": {
          "type": "object"
        },
        "depends_on": {
          "type": "array",
          "items": { "type": "string" }
        }
      },
      "additionalProperties": false
    }
  }
}`

// PlanValidator validates incoming plan documents against the plan JSON
// Schema (Draft 2020-12). Safe for concurrent use: the schema is compiled
// once at construction.
type PlanValidator struct {
	planSchema *jsonschema.Schema
}

// NewPlanValidator creates a PlanValidator with the plan schema pre-compiled.
func NewPlanValidator() (*PlanValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(planSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal plan schema: %w", err)
	}
	if err := c.AddResource("https://planloom.dev/schemas/plan.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("add plan schema resource: %w", err)
	}

	compiled, err := c.Compile("https://planloom.dev/schemas/plan.json")
	if err != nil {
		return nil, fmt.Errorf("compile plan schema: %w", err)
	}

	return &PlanValidator{planSchema: compiled}, nil
}

// ValidateDocument validates a raw plan document (as decoded from a tool
// call) against the plan schema.
func (v *PlanValidator) ValidateDocument(doc map[string]any) error {
	if doc == nil {
		return schema.NewError(schema.ErrCodeValidation, "plan document is nil")
	}

	val, err := toJSONValue(doc)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize plan document").WithCause(err)
	}

	if err := v.planSchema.Validate(val); err != nil {
		return toPlanloomError(err)
	}
	return nil
}

// toJSONValue round-trips a Go value through JSON encoding/decoding so that
// numeric values become json.Number (required by the jsonschema library).
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// toPlanloomError converts a jsonschema.ValidationError into a PlanloomError
// with clear, actionable messages for agent consumption.
func toPlanloomError(err error) *schema.PlanloomError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}

	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf error
// messages with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
