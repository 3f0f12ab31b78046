package actions

// ParameterSchema renders one descriptor's parameter shape as a JSON-schema
// style map, suitable for providers that constrain model output structurally.
func ParameterSchema(desc ActionDescriptor) map[string]any {
	properties := make(map[string]any, len(desc.Params))
	var required []string
	for _, p := range desc.Params {
		prop := map[string]any{"type": string(p.Kind)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// BuildDynamicSchema synthesizes the combined schema for a set of actions: one
// top-level field per action, each optional and nullable, carrying that
// action's own parameter schema and description.
//
// The shape is intentionally permissive. Some model providers reject schemas
// that encode exactly-one-of directly, so "the model picked exactly one
// action" is a semantic contract enforced by the dispatch layer (see
// Registry.DispatchModelOutput), not a structural one enforced here. Pure
// given its input set; rebuild whenever the registered action set changes.
func BuildDynamicSchema(acts []*Action) map[string]any {
	properties := make(map[string]any, len(acts))
	for _, a := range acts {
		properties[a.Name()] = map[string]any{
			"anyOf": []any{
				ParameterSchema(a.Desc),
				map[string]any{"type": "null"},
			},
			"description": a.Desc.Description,
		}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
}
