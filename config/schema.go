package config

import "github.com/invopop/jsonschema"

// Schema returns the JSON schema of a config file.
func Schema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}

// StateSchema returns the JSON schema of a cycle state file.
func StateSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&State{})
}
