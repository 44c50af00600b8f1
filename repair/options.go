package repair

import (
	"fmt"
	"maps"

	"github.com/tmc/langchaingo/prompts"

	"github.com/smallnest/langfix/log"
	"github.com/smallnest/langfix/prompt"
	"github.com/smallnest/langfix/store"
)

// DefaultMaxRepairs is the shared repair budget used when none is configured.
const DefaultMaxRepairs = 2

type config struct {
	budget    Budget
	repair    prompts.PromptTemplate
	logger    log.Logger
	listeners []Listener
	trails    store.TrailStore
	session   string
	metadata  map[string]any
	err       error
}

// Option configures a Loop.
type Option func(*config)

// WithMaxRepairs sets a shared budget of n repairs. n must not be negative.
func WithMaxRepairs(n int) Option {
	return func(c *config) {
		c.budget = SharedBudget{Repairs: n}
	}
}

// WithBudget sets the repair budget policy.
func WithBudget(b Budget) Option {
	return func(c *config) {
		if b == nil {
			c.err = fmt.Errorf("budget cannot be nil")
			return
		}
		c.budget = b
	}
}

// WithRepairTemplate replaces the repair instruction. The text must reference
// {format_instructions}, {bad_output} and {error_msg}.
func WithRepairTemplate(text string) Option {
	return func(c *config) {
		t, err := prompt.NewRepair(text)
		if err != nil {
			c.err = err
			return
		}
		c.repair = t
	}
}

// WithLogger sets the logger. The package default logger is used otherwise.
func WithLogger(l log.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithListener adds a listener. It may be given more than once.
func WithListener(l Listener) Option {
	return func(c *config) {
		if l != nil {
			c.listeners = append(c.listeners, l)
		}
	}
}

// WithTrailStore records every finished Run as a trail under session.
func WithTrailStore(s store.TrailStore, session string) Option {
	return func(c *config) {
		c.trails = s
		c.session = session
	}
}

// WithMetadata attaches metadata to recorded trails.
func WithMetadata(md map[string]any) Option {
	return func(c *config) {
		if c.metadata == nil {
			c.metadata = make(map[string]any, len(md))
		}
		maps.Copy(c.metadata, md)
	}
}
