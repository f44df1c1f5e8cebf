package llm

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Schema is a compiled JSON schema used to strictly validate every LLM
// structured output (Gate2, Intent, base-filters, post-constraints, and
// the four AssistantMessage context types).
type Schema struct {
	resolved *jsonschema.Resolved
}

// NewSchema parses and resolves a JSON schema document.
func NewSchema(schemaJSON []byte) (*Schema, error) {
	var s jsonschema.Schema
	if err := json.Unmarshal(schemaJSON, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve schema: %w", err)
	}
	return &Schema{resolved: resolved}, nil
}

// ValidateInto parses raw JSON, validates it against the schema, and
// decodes it into out. A parse or decode failure returns an "invalid
// json"/"decode json" error (classified PARSE_ERROR); a schema violation
// returns a "schema validation failed" error (classified SCHEMA_INVALID).
func (s *Schema) ValidateInto(raw string, out interface{}) error {
	var instance interface{}
	if err := json.Unmarshal([]byte(raw), &instance); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := s.resolved.Validate(instance); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
