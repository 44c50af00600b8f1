package repair

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/langfix/store"
	"github.com/smallnest/langfix/store/memory"
)

type flowerCopy struct {
	Description string `json:"description" jsonschema_description:"flower copy" jsonschema:"minLength=15,maxLength=30"`
	Reason      string `json:"reason" jsonschema_description:"design rationale" jsonschema:"minLength=15,maxLength=25"`
}

func TestNewTyped(t *testing.T) {
	gen := newScripted(missingReason, validCopy)
	loop, err := NewTyped[flowerCopy](gen, quiet())
	require.NoError(t, err)

	out, res, err := loop.Invoke(context.Background(), "write flower copy")
	require.NoError(t, err)
	assert.Equal(t, flowerCopy{
		Description: "Roses at dusk for a quiet date",
		Reason:      "A fair price for love",
	}, out)
	assert.Equal(t, 2, res.Calls())
	assert.Contains(t, loop.Schema().FormatInstructions(), `"description"`)
}

func TestNewTyped_InvalidType(t *testing.T) {
	_, err := NewTyped[string](newScripted(validCopy))
	assert.ErrorContains(t, err, "failed to derive schema")
}

func TestInvoke(t *testing.T) {
	loop, err := New(flowerSchema(t), newScripted(validCopy), quiet())
	require.NoError(t, err)

	out, err := Invoke[flowerCopy](context.Background(), loop, "write flower copy")
	require.NoError(t, err)
	assert.Equal(t, "A fair price for love", out.Reason)

}

func TestInvoke_RepairsRecordsThatDoNotFitTheType(t *testing.T) {
	trails := memory.NewMemoryTrailStore()
	gen := newScripted(validCopy)
	loop, err := New(flowerSchema(t), gen, WithTrailStore(trails, "typed"), quiet())
	require.NoError(t, err)

	// every reply validates but none converts to an int description
	_, err = Invoke[struct {
		Description int `json:"description"`
	}](context.Background(), loop, "write flower copy")

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Len(t, gen.Calls(), 3)
	for _, a := range exhausted.Attempts {
		assert.Equal(t, FailureStructural, a.Failure)
	}
	assert.Contains(t, exhausted.LastErr().Error(), "does not fit")

	list, err := trails.List(context.Background(), "typed")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, store.OutcomeExhausted, list[0].Outcome)
}

func TestNewTyped_SizedIntegerOutOfRange(t *testing.T) {
	type stock struct {
		Flower string `json:"flower"`
		Count  uint8  `json:"count"`
	}
	gen := newScripted(`{"flower": "rose", "count": 300}`, `{"flower": "rose", "count": 30}`)
	loop, err := NewTyped[stock](gen, WithMaxRepairs(2), quiet())
	require.NoError(t, err)

	out, res, err := loop.Invoke(context.Background(), "count the roses")
	require.NoError(t, err)
	assert.Equal(t, stock{Flower: "rose", Count: 30}, out)
	require.Equal(t, 2, res.Calls())
	assert.Equal(t, FailureConstraint, res.Attempts[0].Failure)
	assert.Contains(t, gen.Calls()[1], `field "count" value 300 is greater than the maximum 255`)
}

func TestNewTyped_ConversionFailureIsRepaired(t *testing.T) {
	type ledger struct {
		Total int64 `json:"total"`
	}
	gen := newScripted(`{"total": 9223372036854775808}`, `{"total": 9223372036854775807}`)
	loop, err := NewTyped[ledger](gen, quiet())
	require.NoError(t, err)

	out, res, err := loop.Invoke(context.Background(), "sum the orders")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), out.Total)
	require.Equal(t, 2, res.Calls())
	assert.Equal(t, FailureStructural, res.Attempts[0].Failure)
	assert.Contains(t, gen.Calls()[1], "does not fit")
	assert.Equal(t, int64(math.MaxInt64), res.Record["total"])
}

func TestInvoke_PropagatesLoopErrors(t *testing.T) {
	loop, err := New(flowerSchema(t), newScripted(shortCopy), WithMaxRepairs(1), quiet())
	require.NoError(t, err)

	out, err := Invoke[flowerCopy](context.Background(), loop, "write flower copy")
	assert.True(t, IsExhausted(err))
	assert.Equal(t, flowerCopy{}, out)
}
