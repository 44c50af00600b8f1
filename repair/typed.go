package repair

import (
	"context"
	"fmt"

	"github.com/smallnest/langfix/parser"
	"github.com/smallnest/langfix/schema"
)

// TypedLoop is a Loop whose records are returned as values of type T.
type TypedLoop[T any] struct {
	*Loop
}

// NewTyped creates a loop whose schema is derived from T's struct tags.
func NewTyped[T any](gen Generator, opts ...Option) (*TypedLoop[T], error) {
	s, err := schema.FromStruct[T]()
	if err != nil {
		return nil, fmt.Errorf("failed to derive schema: %w", err)
	}
	loop, err := New(s, gen, opts...)
	if err != nil {
		return nil, err
	}
	return &TypedLoop[T]{Loop: loop}, nil
}

// Invoke runs the loop and returns the record as T.
func (t *TypedLoop[T]) Invoke(ctx context.Context, instruction string) (T, *Result, error) {
	return invoke[T](ctx, t.Loop, instruction)
}

// Invoke runs loop and converts the validated record to T through its JSON
// tags. A record that validates but does not fit T is repaired like a
// structural failure.
func Invoke[T any](ctx context.Context, loop *Loop, instruction string) (T, error) {
	out, _, err := invoke[T](ctx, loop, instruction)
	return out, err
}

func invoke[T any](ctx context.Context, loop *Loop, instruction string) (T, *Result, error) {
	var out T
	res, err := loop.run(ctx, instruction, func(rec schema.Record) error {
		v, err := parser.Convert[T](rec)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, nil, err
	}
	return out, res, nil
}
