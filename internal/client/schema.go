package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const discoverySchemaURL = "https://foundation.schemas.local/discovery.schema.json"

// discoverySchema is the shape a successful discovery response must have.
// A resource without actions is sent as an empty array.
const discoverySchema = `{
  "type": "object",
  "required": ["data"],
  "properties": {
    "data": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type"],
        "properties": {
          "type": {"type": "string", "minLength": 1},
          "meta": {
            "type": "object",
            "properties": {
              "getters": {"type": ["array", "null"], "items": {"type": "string"}},
              "setters": {"type": ["array", "null"], "items": {"type": "string"}},
              "actions": {
                "oneOf": [
                  {"type": "array", "maxItems": 0},
                  {"type": "null"},
                  {
                    "type": "object",
                    "additionalProperties": {
                      "type": "object",
                      "properties": {
                        "parameters": {
                          "type": ["array", "null"],
                          "items": {
                            "type": "object",
                            "required": ["name"],
                            "properties": {"name": {"type": "string"}}
                          }
                        }
                      }
                    }
                  }
                ]
              }
            }
          }
        }
      }
    }
  }
}`

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func discoveryValidator() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020

		err := c.AddResource(discoverySchemaURL, strings.NewReader(discoverySchema))
		if err != nil {
			compileErr = fmt.Errorf("discovery schema load failed: %w", err)

			return
		}

		compiledSchema, compileErr = c.Compile(discoverySchemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("discovery schema compile failed: %w", compileErr)
		}
	})

	return compiledSchema, compileErr
}

// ValidateDiscovery checks body against the discovery document shape.
func ValidateDiscovery(body []byte) error {
	schema, err := discoveryValidator()
	if err != nil {
		return err
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var document interface{}

	err = decoder.Decode(&document)
	if err != nil {
		return fmt.Errorf("decoding discovery document: %w", err)
	}

	err = schema.Validate(document)
	if err != nil {
		return fmt.Errorf("discovery document validation failed: %w", err)
	}

	return nil
}
