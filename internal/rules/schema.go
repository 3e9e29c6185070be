package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "rules.schema.json"

var (
	compiledOnce sync.Once
	compiled     *validator.Schema
	compileErr   error
)

// Schema reflects the JSON Schema of the rule document from the Go types.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	s := reflector.Reflect(&Rules{})
	s.ID = ""
	s.Title = "Davis Defense rules"
	return json.MarshalIndent(s, "", "  ")
}

func compiledSchema() (*validator.Schema, error) {
	compiledOnce.Do(func() {
		raw, err := Schema()
		if err != nil {
			compileErr = err
			return
		}
		c := validator.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
			compileErr = err
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// ValidateSchema checks the structural shape of a decoded rule set.
func ValidateSchema(r *Rules) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("failed to compile rules schema: %w", err)
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("rules do not match schema: %w", err)
	}
	return nil
}
