package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	type input struct {
		raw map[string]any
	}

	type expected struct {
		isNil  bool
		hasErr bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "nil schema returns nil",
			input:    input{raw: nil},
			expected: expected{isNil: true},
		},
		{
			name: "built object compiles",
			input: input{raw: Object(map[string]*Property{
				"query": String("Search query"),
			}, "query")},
			expected: expected{},
		},
		{
			name: "invalid type keyword fails",
			input: input{raw: map[string]any{
				"type": 42,
			}},
			expected: expected{isNil: true, hasErr: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Compile(tt.input.raw)

			if tt.expected.hasErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.expected.isNil {
				assert.Nil(t, s)
			} else {
				require.NotNil(t, s)
				assert.Equal(t, tt.input.raw, s.Raw())
			}
		})
	}
}

func TestSchema_Validate(t *testing.T) {
	searchArgs := MustCompile(Object(map[string]*Property{
		"queries": Array("Search queries", String("query").Build()).MinItems(1).MaxItems(3),
		"time_range": String("Recency filter").
			Enum("day", "week", "month", "year"),
		"num_results": Integer("Result count").Min(1).Max(10),
	}, "queries"))

	type input struct {
		data any
	}

	type expected struct {
		valid bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "required only",
			input:    input{data: map[string]any{"queries": []any{"go"}}},
			expected: expected{valid: true},
		},
		{
			name: "all properties",
			input: input{data: map[string]any{
				"queries":     []any{"go", "rust"},
				"time_range":  "week",
				"num_results": float64(5),
			}},
			expected: expected{valid: true},
		},
		{
			name:     "missing required",
			input:    input{data: map[string]any{"time_range": "day"}},
			expected: expected{valid: false},
		},
		{
			name:     "wrong type",
			input:    input{data: map[string]any{"queries": "go"}},
			expected: expected{valid: false},
		},
		{
			name: "unexpected property",
			input: input{data: map[string]any{
				"queries": []any{"go"},
				"page":    float64(2),
			}},
			expected: expected{valid: false},
		},
		{
			name: "enum violation",
			input: input{data: map[string]any{
				"queries":    []any{"go"},
				"time_range": "decade",
			}},
			expected: expected{valid: false},
		},
		{
			name: "too many items",
			input: input{data: map[string]any{
				"queries": []any{"a", "b", "c", "d"},
			}},
			expected: expected{valid: false},
		},
		{
			name: "out of range",
			input: input{data: map[string]any{
				"queries":     []any{"go"},
				"num_results": float64(50),
			}},
			expected: expected{valid: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := searchArgs.Validate(tt.input.data)
			if tt.expected.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestSchema_ValidateFormat(t *testing.T) {
	s := MustCompile(Object(map[string]*Property{
		"url": String("Page URL").Format("uri"),
	}, "url"))

	assert.NoError(t, s.Validate(map[string]any{"url": "https://go.dev/doc"}))

	var verr *ValidationError
	assert.ErrorAs(t, s.Validate(map[string]any{"url": "not a url"}), &verr)
}

func TestSchema_NilAcceptsAnything(t *testing.T) {
	var s *Schema
	assert.NoError(t, s.Validate(map[string]any{"anything": true}))
	assert.Nil(t, s.Raw())
	assert.Empty(t, s.Properties())
}

func TestSchema_Introspection(t *testing.T) {
	s := MustCompile(Object(map[string]*Property{
		"url":     String("Page URL").Format("uri"),
		"verbose": Boolean("Include metadata").Default(false),
	}, "url"))

	assert.Equal(t, []string{"url", "verbose"}, s.Properties())
	assert.Equal(t, []string{"url"}, s.Required())
}

func TestEmpty(t *testing.T) {
	s := MustCompile(Empty())
	assert.NoError(t, s.Validate(map[string]any{}))
	assert.Error(t, s.Validate(map[string]any{"x": float64(1)}))
}

func TestMustCompile_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustCompile(map[string]any{"type": 42})
	})
}
