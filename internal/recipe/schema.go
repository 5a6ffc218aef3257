package recipe

// BuildDraftJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass it to the model as a structured output constraint and also use it
// locally to validate what comes back.
func BuildDraftJSONSchema() map[string]any {
	stringList := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string", "minLength": 1},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"title":        map[string]any{"type": "string", "minLength": 1},
			"ingredients":  stringList,
			"instructions": stringList,
			"servings":     map[string]any{"type": "string"},
			"prep_time":    map[string]any{"type": "string"},
			"cook_time":    map[string]any{"type": "string"},
		},
		"required": []string{"title"},
	}
}
