package repair

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var copyRunes = []rune("abcdefghijklmnopqrstuvwxyz ABCXYZ玫瑰花")

func validRecordGen() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		desc := rapid.StringOfN(rapid.RuneFrom(copyRunes), 15, 30, -1).Draw(t, "description")
		reason := rapid.StringOfN(rapid.RuneFrom(copyRunes), 15, 25, -1).Draw(t, "reason")
		data, err := json.Marshal(map[string]string{"description": desc, "reason": reason})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return string(data)
	})
}

func invalidOutputGen() *rapid.Generator[string] {
	return rapid.OneOf(
		rapid.SampledFrom([]string{"", "   ", "not json", "[1, 2]", `"text"`, "{", missingReason, shortCopy}),
		rapid.Custom(func(t *rapid.T) string {
			desc := rapid.StringOfN(rapid.RuneFrom(copyRunes), 0, 14, -1).Draw(t, "short")
			data, _ := json.Marshal(map[string]string{"description": desc, "reason": "A fair price for love"})
			return string(data)
		}),
		rapid.Custom(func(t *rapid.T) string {
			reason := rapid.StringOfN(rapid.RuneFrom(copyRunes), 26, 40, -1).Draw(t, "long")
			data, _ := json.Marshal(map[string]string{"description": "Roses at dusk for a quiet date", "reason": reason})
			return string(data)
		}),
	)
}

func TestProperty_ValidOutputNeedsOneCall(t *testing.T) {
	s := flowerSchema(t)
	rapid.Check(t, func(t *rapid.T) {
		raw := validRecordGen().Draw(t, "raw")
		budget := rapid.IntRange(0, 5).Draw(t, "budget")

		gen := newScripted(raw)
		loop, err := New(s, gen, WithMaxRepairs(budget), quiet())
		require.NoError(t, err)

		res, err := loop.Run(context.Background(), "instruction")
		require.NoError(t, err)
		assert.Equal(t, 1, len(gen.Calls()))
		assert.Empty(t, s.Validate(res.Record))
	})
}

func TestProperty_FailingOutputsExhaustBudget(t *testing.T) {
	s := flowerSchema(t)
	rapid.Check(t, func(t *rapid.T) {
		budget := rapid.IntRange(0, 5).Draw(t, "budget")
		outputs := rapid.SliceOfN(invalidOutputGen(), budget+1, budget+1).Draw(t, "outputs")

		gen := newScripted(outputs...)
		loop, err := New(s, gen, WithMaxRepairs(budget), quiet())
		require.NoError(t, err)

		res, err := loop.Run(context.Background(), "instruction")
		assert.Nil(t, res)

		var exhausted *ExhaustedError
		require.True(t, errors.As(err, &exhausted), "expected exhaustion, got %v", err)
		calls := gen.Calls()
		assert.Equal(t, budget+1, len(calls))
		assert.Len(t, exhausted.Attempts, budget+1)
		assert.Len(t, exhausted.Messages(), budget+1)

		// every repair instruction carries the previous output and error verbatim
		for k := 1; k < len(calls); k++ {
			prev := exhausted.Attempts[k-1]
			assert.Contains(t, calls[k], prev.Raw)
			assert.Contains(t, calls[k], prev.Err.Error())
		}
	})
}

func TestProperty_TransportFailureStopsLoop(t *testing.T) {
	s := flowerSchema(t)
	rapid.Check(t, func(t *rapid.T) {
		budget := rapid.IntRange(0, 5).Draw(t, "budget")
		failAt := rapid.IntRange(0, budget).Draw(t, "failAt")

		gen := newScripted("not json").failOn(failAt, errors.New("connection reset"))
		loop, err := New(s, gen, WithMaxRepairs(budget), quiet())
		require.NoError(t, err)

		_, err = loop.Run(context.Background(), "instruction")
		var transport *TransportError
		require.True(t, errors.As(err, &transport), "expected transport error, got %v", err)
		assert.Equal(t, failAt, transport.Attempt)
		assert.Equal(t, failAt+1, len(gen.Calls()))
	})
}

func TestProperty_NeverReturnsInvalidRecord(t *testing.T) {
	s := flowerSchema(t)
	rapid.Check(t, func(t *rapid.T) {
		budget := rapid.IntRange(0, 3).Draw(t, "budget")
		outputs := rapid.SliceOfN(rapid.OneOf(validRecordGen(), invalidOutputGen()), 1, 6).Draw(t, "outputs")

		gen := newScripted(outputs...)
		loop, err := New(s, gen, WithMaxRepairs(budget), quiet())
		require.NoError(t, err)

		res, err := loop.Run(context.Background(), "instruction")
		assert.LessOrEqual(t, len(gen.Calls()), budget+1)
		if err != nil {
			assert.Nil(t, res)
			assert.True(t, IsExhausted(err))
			return
		}
		assert.Empty(t, s.Validate(res.Record))
	})
}
