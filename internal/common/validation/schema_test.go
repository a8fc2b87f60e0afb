package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var notesSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"perfume_name": map[string]interface{}{"type": []interface{}{"string", "null"}},
		"top_notes": map[string]interface{}{
			"type":  []interface{}{"array", "null"},
			"items": map[string]interface{}{"type": "string"},
		},
	},
	"required": []interface{}{"perfume_name"},
}

func TestSchema_Validate(t *testing.T) {
	schema, err := Compile(notesSchema)
	require.NoError(t, err)

	tests := []struct {
		name      string
		document  map[string]interface{}
		wantValid bool
		wantCode  string
	}{
		{
			name:      "valid with nulls",
			document:  map[string]interface{}{"perfume_name": nil, "top_notes": nil},
			wantValid: true,
		},
		{
			name:      "valid notes",
			document:  map[string]interface{}{"perfume_name": "Naxos", "top_notes": []interface{}{"bergamot"}},
			wantValid: true,
		},
		{
			name:      "notes must be strings",
			document:  map[string]interface{}{"perfume_name": "Naxos", "top_notes": []interface{}{1}},
			wantCode:  "invalid_type",
		},
		{
			name:      "missing required",
			document:  map[string]interface{}{},
			wantCode:  "required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := schema.Validate(tt.document)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid)
			if !tt.wantValid {
				require.NotEmpty(t, result.Errors)
				assert.Equal(t, tt.wantCode, result.Errors[0].Code)
				assert.NotEmpty(t, result.Summary())
			}
		})
	}
}

func TestSchema_ValidateJSON(t *testing.T) {
	schema, err := Compile(notesSchema)
	require.NoError(t, err)

	result, err := schema.ValidateJSON([]byte(`{"perfume_name":"Naxos"}`))
	require.NoError(t, err)
	assert.True(t, result.Valid)

	_, err = schema.ValidateJSON([]byte(`{not json`))
	assert.Error(t, err)
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile(map[string]interface{}{"type": 12})
	assert.Error(t, err)
}
