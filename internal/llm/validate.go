package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	jobSchemaOnce sync.Once
	jobSchema     *jsonschema.Schema
	jobSchemaErr  error
)

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateJobDetails checks decoded details against BuildJobJSONSchema, compiled once.
func ValidateJobDetails(details map[string]any) error {
	jobSchemaOnce.Do(func() {
		jobSchema, jobSchemaErr = compileSchema(BuildJobJSONSchema())
	})
	if jobSchemaErr != nil {
		return jobSchemaErr
	}
	if err := jobSchema.Validate(map[string]any(details)); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
