// Package jsonschema generates the JSON Schema for ag's configuration file.
package jsonschema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/takumiyoshikawa/agentic/internal/config"
)

const schemaID = "https://raw.githubusercontent.com/takumiyoshikawa/agentic/main/agentic_config.schema.json"

// Generate creates a JSON Schema from config.Config for editor autocomplete and validation.
func Generate() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Property names follow the YAML keys, not the Go field names.
		FieldNameTag: "yaml",
		// Every section is optional; defaults fill the gaps.
		RequiredFromJSONSchemaTags: true,
	}

	s := r.Reflect(&config.Config{})

	s.ID = schemaID
	s.Title = "agentic"
	s.Description = "Schema for the ag configuration file (agentic_config.yaml)"

	return json.MarshalIndent(s, "", "  ")
}
