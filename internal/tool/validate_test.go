package tool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"path":    {Type: TypeString},
		"content": {Type: TypeString},
		"mode":    {Type: TypeString, Enum: []string{"text", "binary"}},
		"limit":   {Type: TypeInteger},
		"ratio":   {Type: TypeNumber},
		"force":   {Type: TypeBoolean},
		"tags":    {Type: TypeArray, Items: &Schema{Type: TypeString}},
		"meta": {
			Type:       TypeObject,
			Properties: map[string]*Schema{"owner": {Type: TypeString}},
			Required:   []string{"owner"},
		},
	},
	Required: []string{"path", "content"},
}

func TestValidateArgs_ValidArguments_Pass(t *testing.T) {
	args := map[string]any{
		"path":    "hello.py",
		"content": `print("hi")`,
		"mode":    "text",
		"limit":   float64(10),
		"ratio":   0.5,
		"force":   true,
		"tags":    []any{"a", "b"},
		"meta":    map[string]any{"owner": "me"},
		"extra":   "ignored",
	}
	assert.NoError(t, ValidateArgs(createSchema, args))
}

func TestValidateArgs_MissingRequired_CitesArgument(t *testing.T) {
	err := ValidateArgs(createSchema, map[string]any{"path": "a.txt"})

	require.Error(t, err)
	var argErr *ArgumentError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, "content", argErr.Argument)
	assert.True(t, errors.Is(err, ErrInvalidArguments))
}

func TestValidateArgs_NullRequired_Fails(t *testing.T) {
	err := ValidateArgs(createSchema, map[string]any{"path": "a.txt", "content": nil})
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestValidateArgs_TypeMismatches(t *testing.T) {
	base := func() map[string]any { return map[string]any{"path": "p", "content": "c"} }
	cases := map[string]struct {
		key   string
		value any
	}{
		"string gets number":      {"path", float64(1)},
		"integer gets fraction":   {"limit", 1.5},
		"number gets string":      {"ratio", "half"},
		"boolean gets string":     {"force", "yes"},
		"array gets string":       {"tags", "a,b"},
		"array item wrong type":   {"tags", []any{"a", float64(2)}},
		"enum value not allowed":  {"mode", "hex"},
		"nested required missing": {"meta", map[string]any{}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			args := base()
			args[tc.key] = tc.value
			err := ValidateArgs(createSchema, args)
			assert.ErrorIs(t, err, ErrInvalidArguments)
		})
	}
}

func TestValidateArgs_NilSchema_AcceptsAnything(t *testing.T) {
	assert.NoError(t, ValidateArgs(nil, map[string]any{"x": 1}))
}
