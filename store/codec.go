package store

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"todo-app/model"
)

const itemsSchemaURL = "items.schema.json"

const itemsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "text", "complete"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "text": {"type": "string"},
      "complete": {"type": "boolean"},
      "editing": {"type": "boolean"}
    }
  }
}`

var schema = jsonschema.MustCompileString(itemsSchemaURL, itemsSchema)

// MalformedError reports a stored blob that could not be turned into items.
type MalformedError struct {
	Path    string
	Message string
}

func (e *MalformedError) Error() string {
	if e.Path == "" {
		return "malformed items: " + e.Message
	}
	return fmt.Sprintf("malformed items at %s: %s", e.Path, e.Message)
}

// Encode serialises the canonical list.
func Encode(items []model.Item) (string, error) {
	if items == nil {
		items = []model.Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses a stored blob. An empty or null blob yields an empty list.
func Decode(blob string) ([]model.Item, error) {
	blob = strings.TrimSpace(blob)
	if blob == "" || blob == "null" {
		return []model.Item{}, nil
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(blob), &doc); err != nil {
		return nil, &MalformedError{Message: err.Error()}
	}
	if err := schema.Validate(doc); err != nil {
		return nil, schemaError(err)
	}

	var items []model.Item
	if err := json.Unmarshal([]byte(blob), &items); err != nil {
		return nil, &MalformedError{Message: err.Error()}
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// schemaError reduces a validation failure to its first leaf cause.
func schemaError(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &MalformedError{Message: err.Error()}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &MalformedError{Path: ve.InstanceLocation, Message: ve.Message}
}
