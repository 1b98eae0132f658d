package policy

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// bundleSchemaJSON pins the condition/action grammar a Bundle must
// satisfy: closed enums for category and operator, and the shared
// snake_case key shape. This is the only grammar the engine accepts —
// there is no expression language to validate against.
const bundleSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["name", "policies"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"policies": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "effect", "actions", "conditions"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"effect": {"enum": ["Permit", "Deny"]},
					"priority": {"type": "integer"},
					"actions": {
						"type": "array",
						"minItems": 1,
						"items": {"type": "string", "pattern": "^[a-z_][a-z0-9_]*(\\.[a-z_][a-z0-9_]*)*$"}
					},
					"conditions": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["category", "key", "operator", "expected_value"],
							"properties": {
								"category": {"enum": ["Subject", "Resource", "Environment"]},
								"key": {"type": "string", "pattern": "^[a-z_][a-z0-9_]*$"},
								"operator": {"enum": [
									"Equals", "NotEquals", "GreaterThan", "LessThan",
									"GreaterThanOrEqual", "LessThanOrEqual", "Contains", "In", "NotIn"
								]},
								"expected_value": {"type": "string"}
							}
						}
					}
				}
			}
		}
	}
}`

const bundleSchemaURL = "https://abacsys.local/schemas/policy-bundle.schema.json"

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(bundleSchemaURL, strings.NewReader(bundleSchemaJSON)); err != nil {
			compileErr = fmt.Errorf("policy: load bundle schema: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(bundleSchemaURL)
	})
	return compiledSchema, compileErr
}

// Validate checks b against the condition/action grammar. Callers must
// run this before persisting any policy sourced from a bundle.
func Validate(b *Bundle) error {
	s, err := schema()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("policy: marshal bundle for validation: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("policy: unmarshal bundle for validation: %w", err)
	}

	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("policy: bundle failed grammar validation: %w", err)
	}
	return nil
}
