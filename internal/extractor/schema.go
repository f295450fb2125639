package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"manual-spec-rag/internal/models"
)

const recordSchemaURL = "spec_record.json"

// RecordSchema is the JSON Schema every normalized record must satisfy.
func RecordSchema() map[string]any {
	types := make([]any, 0, len(models.SpecTypes))
	for _, t := range models.SpecTypes {
		types = append(types, string(t))
	}
	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"component", "spec_type", "value", "unit", "confidence"},
		"properties": map[string]any{
			"component":      map[string]any{"type": "string", "minLength": 1},
			"spec_type":      map[string]any{"type": "string", "enum": types},
			"value":          map[string]any{"type": "string", "minLength": 1},
			"unit":           map[string]any{"type": "string"},
			"part_number":    map[string]any{"type": "string"},
			"condition":      map[string]any{"type": "string"},
			"source_page":    map[string]any{"type": "integer", "minimum": 1},
			"confidence":     map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			"source_context": map[string]any{"type": "string"},
		},
	}
}

func compileRecordSchema() (*jsonschema.Schema, error) {
	b, err := json.Marshal(RecordSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(recordSchemaURL, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(recordSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// decodeRecord normalizes one raw item, validates it and converts it to a SpecRecord.
func decodeRecord(schema *jsonschema.Schema, item map[string]any) (models.SpecRecord, error) {
	normalized := Normalize(item)

	// Round-trip so the validator sees plain JSON values.
	b, err := json.Marshal(normalized)
	if err != nil {
		return models.SpecRecord{}, fmt.Errorf("encode record: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return models.SpecRecord{}, fmt.Errorf("decode record: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return models.SpecRecord{}, fmt.Errorf("record does not match schema: %w", err)
	}

	var rec models.SpecRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return models.SpecRecord{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}
