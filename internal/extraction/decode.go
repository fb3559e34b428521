// Package extraction decodes extraction payloads produced upstream
// (OCR, LLM or structured parsers) into model.ExtractionResult.
package extraction

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/rezonia/invoice-validator/internal/model"
)

//go:embed extraction.schema.json
var schemaJSON []byte

const schemaURL = "extraction.schema.json"

var schema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("add schema: %v", err))
	}
	s, err := compiler.Compile(schemaURL)
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return s
}

// Decode checks the payload shape and decodes it. Numbers are kept as
// json.Number so amounts reach the validator without float rounding.
func Decode(data []byte) (*model.ExtractionResult, error) {
	raw, err := decodeAny(data)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(raw); err != nil {
		return nil, model.NewParseError("json", "payload", "does not match extraction schema", err)
	}

	var result model.ExtractionResult
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&result); err != nil {
		return nil, model.NewParseError("json", "payload", "failed to decode extraction result", err)
	}
	return &result, nil
}

// DecodeBatch decodes a JSON array of extraction results
func DecodeBatch(data []byte) ([]*model.ExtractionResult, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, model.NewParseError("json", "payload", "expected an array of extraction results", err)
	}

	results := make([]*model.ExtractionResult, 0, len(items))
	for i, item := range items {
		r, err := Decode(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		results = append(results, r)
	}
	return results, nil
}

func decodeAny(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, model.NewParseError("json", "payload", "empty payload", nil)
	}

	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, model.NewParseError("json", "payload", "invalid JSON", err)
	}
	if dec.More() {
		return nil, model.NewParseError("json", "payload", "unexpected data after JSON value", nil)
	}
	return raw, nil
}
