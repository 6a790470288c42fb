package llm

import "github.com/joseph-ayodele/jobs-tracker/constants"

// BuildJobJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// It is deliberately permissive: no field is required and unknown keys are
// allowed, since defaulting is left to the model and downstream tolerates gaps.
func BuildJobJSONSchema() map[string]any {
	props := make(map[string]any, len(constants.ExtractionKeys))
	for _, k := range constants.ExtractionKeys {
		props[k] = map[string]any{"type": "string"}
	}
	props[constants.KeySkillsRequired] = map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}

	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}
