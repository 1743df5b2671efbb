package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildInvoiceJSONSchema returns a deliberately permissive JSON-Schema (draft
// 2020-12 subset) for the raw extraction payload. It gates shape, not content:
// the payload must be an object and its known sections, when present, must be
// objects too. Field-level coercion is the normalizer's job.
func BuildInvoiceJSONSchema() map[string]any {
	section := map[string]any{"type": "object"}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prestador": section,
			"tomador":   section,
			"servico":   section,
			"valores":   section,
		},
	}
}

var (
	schemaOnce     sync.Once
	schemaCompiled *jsonschema.Schema
	schemaErr      error
)

// ValidateRaw validates a raw payload against the invoice schema. A failure means
// the model produced something structurally unusable (e.g. "prestador" as a bare
// string list), which the caller treats as that strategy yielding nothing.
func ValidateRaw(raw map[string]any) error {
	schemaOnce.Do(func() {
		b, err := json.Marshal(BuildInvoiceJSONSchema())
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("invoice.json", bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schemaCompiled, schemaErr = compiler.Compile("invoice.json")
	})
	if schemaErr != nil {
		return schemaErr
	}

	// round-trip so numbers and nested maps take their generic JSON form
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := schemaCompiled.Validate(v); err != nil {
		return fmt.Errorf("payload does not match schema: %w", err)
	}
	return nil
}
