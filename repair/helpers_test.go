package repair

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smallnest/langfix/log"
	"github.com/smallnest/langfix/schema"
)

const (
	validCopy     = `{"description": "Roses at dusk for a quiet date", "reason": "A fair price for love"}`
	missingReason = `{"description": "Roses at dusk for a quiet date"}`
	shortCopy     = `{"description": "Red roses!", "reason": "A fair price for love"}`
)

func flowerSchema(t testing.TB) *schema.Schema {
	t.Helper()
	s, err := schema.New("FlowerCopywriting",
		schema.String("description").Describe("flower copy, 15-30 characters").Length(15, 30),
		schema.String("reason").Describe("design rationale, 15-25 characters").Length(15, 25),
	)
	require.NoError(t, err)
	return s
}

// scriptedGenerator replays outputs in order, repeating the last one, and
// records every instruction it receives.
type scriptedGenerator struct {
	mu      sync.Mutex
	outputs []string
	errs    map[int]error
	calls   []string
}

func newScripted(outputs ...string) *scriptedGenerator {
	return &scriptedGenerator{outputs: outputs, errs: map[int]error{}}
}

func (g *scriptedGenerator) failOn(call int, err error) *scriptedGenerator {
	g.errs[call] = err
	return g
}

func (g *scriptedGenerator) Generate(_ context.Context, instruction string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := len(g.calls)
	g.calls = append(g.calls, instruction)
	if err, ok := g.errs[n]; ok {
		return "", err
	}
	if len(g.outputs) == 0 {
		return "", nil
	}
	if n >= len(g.outputs) {
		return g.outputs[len(g.outputs)-1], nil
	}
	return g.outputs[n], nil
}

func (g *scriptedGenerator) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

// recorder collects events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnRepairEvent(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func quiet() Option {
	return WithLogger(&log.NoOpLogger{})
}
