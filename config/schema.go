package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of the config file, for editor completion.
func Schema() ([]byte, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
		FieldNameTag:   "yaml",
	}
	schema := reflector.Reflect(&Config{})
	schema.Title = "agentpipe configuration"
	return json.MarshalIndent(schema, "", "  ")
}
