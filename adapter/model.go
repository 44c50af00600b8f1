package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/langfix/repair"
)

// ErrEmptyResponse is returned when the model answers with no choices.
var ErrEmptyResponse = errors.New("model returned no choices")

// ModelGenerator adapts an llms.Model to repair.Generator.
type ModelGenerator struct {
	model       llms.Model
	system      string
	callOptions []llms.CallOption
}

var _ repair.Generator = (*ModelGenerator)(nil)

// Option configures a ModelGenerator.
type Option func(*ModelGenerator)

// WithSystemPrompt prepends a system message to every request.
func WithSystemPrompt(text string) Option {
	return func(g *ModelGenerator) {
		g.system = text
	}
}

// WithCallOptions passes call options such as temperature or JSON mode to
// every request.
func WithCallOptions(opts ...llms.CallOption) Option {
	return func(g *ModelGenerator) {
		g.callOptions = append(g.callOptions, opts...)
	}
}

// NewModelGenerator creates a generator backed by model.
func NewModelGenerator(model llms.Model, opts ...Option) *ModelGenerator {
	g := &ModelGenerator{model: model}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate implements repair.Generator.
func (g *ModelGenerator) Generate(ctx context.Context, instruction string) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if g.system != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, g.system))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, instruction))

	resp, err := g.model.GenerateContent(ctx, messages, g.callOptions...)
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}
