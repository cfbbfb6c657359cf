package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// SimilarBikesInputSchema describes the variables of a recommend-similar-bikes job.
const SimilarBikesInputSchema = `{
  "type": "object",
  "properties": {
    "bikeSlug": {"type": "string", "minLength": 1},
    "limit": {"type": "integer", "minimum": 0}
  },
  "required": ["bikeSlug"]
}`

// BudgetInputSchema describes the variables of a recommend-used-bikes-budget job.
const BudgetInputSchema = `{
  "type": "object",
  "properties": {
    "budget": {"type": "number"},
    "limit": {"type": "integer", "minimum": 0}
  },
  "required": ["budget"]
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator holds a compiled schema so job handlers don't reparse it per job.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles a JSON schema document.
func NewValidator(schemaJSON string) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// MustValidator is NewValidator for schemas embedded in the binary.
func MustValidator(schemaJSON string) *Validator {
	v, err := NewValidator(schemaJSON)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks input against the compiled schema.
func (v *Validator) Validate(input map[string]interface{}) (*ValidationResult, error) {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(input))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldOf(desc),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// ValidateInput validates input against a schema given as JSON text.
func ValidateInput(input map[string]interface{}, schemaJSON string) (*ValidationResult, error) {
	v, err := NewValidator(schemaJSON)
	if err != nil {
		return nil, err
	}
	return v.Validate(input)
}

// required errors are reported against the root, the missing name is in details
func fieldOf(desc gojsonschema.ResultError) string {
	if desc.Type() == "required" {
		if p, ok := desc.Details()["property"].(string); ok {
			return p
		}
	}
	return desc.Field()
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}
