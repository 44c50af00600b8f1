package parser

import (
	"errors"
	"testing"

	"github.com/smallnest/langfix/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flowerCopy struct {
	Description string `json:"description" jsonschema_description:"flower copy" jsonschema:"minLength=15,maxLength=30"`
	Reason      string `json:"reason" jsonschema_description:"design rationale" jsonschema:"minLength=15,maxLength=25"`
}

func TestParser_Parse(t *testing.T) {
	p, err := New[flowerCopy]()
	require.NoError(t, err)
	assert.Contains(t, p.FormatInstructions(), `"minLength":15`)

	got, err := p.Parse("```json\n" + validFlower + "\n```")
	require.NoError(t, err)
	assert.Equal(t, flowerCopy{
		Description: "Roses at dusk for a quiet date",
		Reason:      "A fair price for love",
	}, got)

	_, err = p.Parse(`{"description": "Red roses!", "reason": "A fair price for love"}`)
	var ce *ConstraintError
	assert.True(t, errors.As(err, &ce))
}

func TestParser_WithSchema(t *testing.T) {
	type stars struct {
		Stars int8 `json:"stars"`
	}
	s := schema.MustNew("Stars", schema.Integer("stars"))
	p, err := NewWithSchema[stars](s)
	require.NoError(t, err)
	assert.Same(t, s, p.Schema())

	got, err := p.Parse(`{"stars": 4}`)
	require.NoError(t, err)
	assert.Equal(t, int8(4), got.Stars)

	// valid for the schema but does not fit an int8
	_, err = p.Parse(`{"stars": 4000}`)
	var se *StructuralError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Reason, "does not fit")

	_, err = NewWithSchema[stars](nil)
	assert.Error(t, err)
}

func TestNew_InvalidType(t *testing.T) {
	_, err := New[[]string]()
	assert.Error(t, err)
}
