package template

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var schemaFiles = map[Side]string{
	SideRemote: "schemas/remote.schema.json",
	SideLocal:  "schemas/local.schema.json",
}

var (
	schemasOnce sync.Once
	schemas     map[Side]*jsonschema.Schema
	schemasErr  error
)

func compiledSchemas() (map[Side]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		compiled := make(map[Side]*jsonschema.Schema, len(schemaFiles))
		c := jsonschema.NewCompiler()
		for side, file := range schemaFiles {
			raw, err := schemaFS.ReadFile(file)
			if err != nil {
				schemasErr = fmt.Errorf("failed to read %s: %w", file, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
			if err != nil {
				schemasErr = fmt.Errorf("failed to parse %s: %w", file, err)
				return
			}
			if err := c.AddResource(file, doc); err != nil {
				schemasErr = fmt.Errorf("failed to add %s: %w", file, err)
				return
			}
			sch, err := c.Compile(file)
			if err != nil {
				schemasErr = fmt.Errorf("failed to compile %s: %w", file, err)
				return
			}
			compiled[side] = sch
		}
		schemas = compiled
	})
	return schemas, schemasErr
}

// validateShape checks a parsed JSON instance against the schema of its side.
func validateShape(side Side, instance any) error {
	all, err := compiledSchemas()
	if err != nil {
		return err
	}
	sch, ok := all[side]
	if !ok {
		return fmt.Errorf("no schema for side %q", side)
	}
	return sch.Validate(instance)
}
