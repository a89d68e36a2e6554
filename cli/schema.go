package cli

import (
	"encoding/json"

	"github.com/urfave/cli/v2"

	"go.viam.com/dyntree/config"
)

// SchemaAction prints the JSON schema of config or state files.
func SchemaAction(c *cli.Context) error {
	schema := config.Schema()
	if c.Bool(schemaFlagState) {
		schema = config.StateSchema()
	}
	raw, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", raw)
	return nil
}
