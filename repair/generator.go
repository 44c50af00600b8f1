package repair

import "context"

// Generator produces text for an instruction. Any returned error is treated
// as a transport failure.
type Generator interface {
	Generate(ctx context.Context, instruction string) (string, error)
}

// GeneratorFunc is a function adapter for Generator
type GeneratorFunc func(ctx context.Context, instruction string) (string, error)

// Generate implements the Generator interface
func (f GeneratorFunc) Generate(ctx context.Context, instruction string) (string, error) {
	return f(ctx, instruction)
}
