package actions

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildCatalogActions() []*Action {
	descs := Catalog()
	acts := make([]*Action, 0, len(descs))
	for _, d := range descs {
		acts = append(acts, New(d, nil))
	}
	return acts
}

func TestBuildDynamicSchemaShape(t *testing.T) {
	schema := BuildDynamicSchema(buildCatalogActions())

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])

	properties, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, properties, 17)

	// Every action appears as an optional, nullable field carrying its own
	// parameter schema.
	for _, desc := range Catalog() {
		field, ok := properties[desc.Name].(map[string]any)
		require.True(t, ok, "schema is missing action %q", desc.Name)
		assert.Equal(t, desc.Description, field["description"])

		anyOf, ok := field["anyOf"].([]any)
		require.True(t, ok)
		require.Len(t, anyOf, 2)
		assert.Equal(t, map[string]any{"type": "null"}, anyOf[1])
	}
	_, hasRequired := schema["required"]
	assert.False(t, hasRequired, "no top-level field may be required")
}

func TestParameterSchemaForIndexedAction(t *testing.T) {
	got := ParameterSchema(descClickElement)
	want := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"index": map[string]any{
				"type":        "integer",
				"description": "Element index from the current page state",
			},
		},
		"required": []string{"index"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parameter schema mismatch (-want +got):\n%s", diff)
	}
}

func TestParameterSchemaOmitsEmptyRequired(t *testing.T) {
	got := ParameterSchema(descGoBack)
	assert.NotContains(t, got, "required")
	assert.Empty(t, got["properties"])
}
