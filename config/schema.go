package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema describes the structure of config.json.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["profiles"],
  "properties": {
    "profiles": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["apiKey"],
        "properties": {
          "apiKey": {"type": "string"}
        }
      }
    },
    "defaultProfile": {"type": "string"}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// validateDocument checks a decoded document against documentSchema.
func validateDocument(doc any) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, fmt.Sprintf("  - %s: %s", describeField(desc.Field()), desc.Description()))
	}
	return errors.New("Config file has an invalid structure:\n" + strings.Join(details, "\n"))
}

// describeField turns a gojsonschema field path into something readable.
func describeField(field string) string {
	if field == "(root)" {
		return "document"
	}
	if name, ok := strings.CutPrefix(field, "profiles."); ok {
		name = strings.TrimSuffix(name, ".apiKey")
		return fmt.Sprintf("profile %q", name)
	}
	return field
}
