package llm

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func topicListSchema() *Schema {
	return &Schema{
		Name:        "test-topic-list",
		Description: "Topics proposed for a worksheet",
		Definition: map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":   map[string]any{"type": "string", "minLength": 1},
					"name": map[string]any{"type": "string"},
					"counts": map[string]any{
						"type":     "array",
						"items":    map[string]any{"type": "integer", "minimum": 0},
						"minItems": 4,
						"maxItems": 4,
					},
					"level": map[string]any{"type": "string", "enum": []any{"easy", "medium", "hard", "very-hard"}},
				},
				"required": []any{"id", "name"},
			},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"complete topic", `[{"id":"t1","name":"Hàm số","counts":[1,2,1,1],"level":"hard"}]`, false},
		{"optional fields omitted", `[{"id":"t1","name":"Hàm số"}]`, false},
		{"empty list", `[]`, false},
		{"missing name", `[{"id":"t1"}]`, true},
		{"empty id", `[{"id":"","name":"Hàm số"}]`, true},
		{"negative count", `[{"id":"t1","name":"x","counts":[1,-2,1,1]}]`, true},
		{"three counts", `[{"id":"t1","name":"x","counts":[1,2,1]}]`, true},
		{"unknown level", `[{"id":"t1","name":"x","level":"trivial"}]`, true},
		{"object instead of list", `{"id":"t1","name":"x"}`, true},
		{"malformed", `[{not json}]`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(topicListSchema(), json.RawMessage(tt.raw))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var invalid *ErrInvalidResponse
			require.True(t, errors.As(err, &invalid), "got %T", err)
			assert.Equal(t, tt.raw, string(invalid.Content))
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	assert.NoError(t, validateResponse(nil, json.RawMessage(`{"anything":"goes"}`)))
}

func TestValidate_SingleRecord(t *testing.T) {
	schema := &Schema{
		Name: "test-question-record",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"content":  map[string]any{"type": "string"},
				"solution": map[string]any{"type": "string"},
				"parts": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "object", "required": []any{"label"}},
				},
			},
			"required": []any{"content"},
		},
	}

	assert.NoError(t, Validate(schema, json.RawMessage(`{"content":"Tính $x$","parts":[{"label":"a)"}]}`)))
	assert.Error(t, Validate(schema, json.RawMessage(`{"content":"Tính $x$","parts":[{}]}`)))
}
