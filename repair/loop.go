package repair

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/prompts"

	"github.com/smallnest/langfix/log"
	"github.com/smallnest/langfix/parser"
	"github.com/smallnest/langfix/prompt"
	"github.com/smallnest/langfix/schema"
	"github.com/smallnest/langfix/store"
)

// Result is a successful Run.
type Result struct {
	// ID identifies the invocation; it is the trail ID when trails are recorded
	ID string

	// Record is the validated record
	Record schema.Record

	// Attempts holds every attempt, the last one being the successful one
	Attempts []Attempt
}

// Calls is the number of generator calls the Run made.
func (r *Result) Calls() int {
	return len(r.Attempts)
}

// Loop is a reusable, concurrency-safe repair loop bound to one schema and
// generator.
type Loop struct {
	schema             *schema.Schema
	gen                Generator
	formatInstructions string

	budget    Budget
	repair    prompts.PromptTemplate
	logger    log.Logger
	listeners []Listener
	trails    store.TrailStore
	session   string
	metadata  map[string]any
}

// New creates a Loop.
func New(s *schema.Schema, gen Generator, opts ...Option) (*Loop, error) {
	if s == nil {
		return nil, fmt.Errorf("schema cannot be nil")
	}
	if gen == nil {
		return nil, fmt.Errorf("generator cannot be nil")
	}

	cfg := &config{
		budget: SharedBudget{Repairs: DefaultMaxRepairs},
		repair: prompt.DefaultRepair(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.err != nil {
		return nil, fmt.Errorf("invalid repair option: %w", cfg.err)
	}
	if err := cfg.budget.validate(); err != nil {
		return nil, err
	}

	return &Loop{
		schema:             s,
		gen:                gen,
		formatInstructions: s.FormatInstructions(),
		budget:             cfg.budget,
		repair:             cfg.repair,
		logger:             cfg.logger,
		listeners:          cfg.listeners,
		trails:             cfg.trails,
		session:            cfg.session,
		metadata:           cfg.metadata,
	}, nil
}

// Schema returns the schema records are validated against.
func (l *Loop) Schema() *schema.Schema {
	return l.schema
}

// Budget returns the repair budget policy.
func (l *Loop) Budget() Budget {
	return l.budget
}

func (l *Loop) getLogger() log.Logger {
	if l.logger != nil {
		return l.logger
	}
	return log.GetDefaultLogger()
}

// Run sends instruction to the generator and repairs the output until it
// validates or the budget runs out. Attempts are strictly sequential.
func (l *Loop) Run(ctx context.Context, instruction string) (*Result, error) {
	return l.run(ctx, instruction, nil)
}

// run is Run with an extra acceptance check applied to every validated
// record. A record the check refuses is a structural failure and is repaired
// like one.
func (l *Loop) run(ctx context.Context, instruction string, accept func(schema.Record) error) (*Result, error) {
	inv := &invocation{
		loop:        l,
		id:          uuid.NewString(),
		instruction: instruction,
		counter:     l.budget.counter(),
		accept:      accept,
	}
	return inv.run(ctx)
}

type invocation struct {
	loop        *Loop
	id          string
	instruction string
	counter     counter
	accept      func(schema.Record) error
	attempts    []Attempt
}

func (inv *invocation) run(ctx context.Context) (*Result, error) {
	l := inv.loop
	current := inv.instruction

	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return nil, inv.cancelled(ctx, err)
		}

		attempt := Attempt{Index: index, Instruction: current}
		inv.emit(ctx, EventAttemptStart, attempt, nil)

		start := time.Now()
		raw, err := l.gen.Generate(ctx, current)
		attempt.Duration = time.Since(start)

		if err != nil {
			// a generator aborted by our own context is a cancellation
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, inv.cancelled(ctx, ctxErr)
			}
			attempt.Failure = FailureTransport
			attempt.Err = err
			inv.attempts = append(inv.attempts, attempt)

			terr := &TransportError{Attempt: index, Attempts: inv.attempts, Err: err}
			l.getLogger().Error("repair %s: generation failed on attempt %d: %v", inv.id, index, err)
			inv.emit(ctx, EventTransportFailure, attempt, terr)
			inv.record(ctx, store.OutcomeTransport, nil, terr)
			return nil, terr
		}

		attempt.Raw = raw
		rec, derr := parser.Decode(raw, l.schema)
		if derr == nil && inv.accept != nil {
			derr = inv.check(raw, rec)
		}
		if derr == nil {
			inv.attempts = append(inv.attempts, attempt)
			l.getLogger().Debug("repair %s: attempt %d succeeded", inv.id, index)
			inv.emit(ctx, EventAttemptSuccess, attempt, nil)
			inv.record(ctx, store.OutcomeSuccess, rec, nil)
			return &Result{ID: inv.id, Record: rec, Attempts: inv.attempts}, nil
		}

		attempt.Failure = classify(derr)
		attempt.Err = derr
		inv.attempts = append(inv.attempts, attempt)
		l.getLogger().Warn("repair %s: attempt %d failed (%s): %v", inv.id, index, attempt.Failure, derr)
		inv.emit(ctx, EventAttemptFailure, attempt, derr)

		if !inv.counter.spend(attempt.Failure) {
			xerr := &ExhaustedError{Attempts: inv.attempts}
			l.getLogger().Error("repair %s: %v", inv.id, xerr)
			inv.emit(ctx, EventExhausted, attempt, xerr)
			inv.record(ctx, store.OutcomeExhausted, nil, xerr)
			return nil, xerr
		}

		// templates are checked by prompt.NewRepair, so rendering cannot fail
		current, _ = prompt.RenderRepair(l.repair, l.formatInstructions, raw, derr.Error())
	}
}

func (inv *invocation) check(raw string, rec schema.Record) error {
	err := inv.accept(rec)
	if err == nil {
		return nil
	}
	reason, cause := err.Error(), err
	var se *parser.StructuralError
	if errors.As(err, &se) {
		reason, cause = se.Reason, se.Err
	}
	return &parser.StructuralError{Raw: raw, Reason: reason, Err: cause}
}

func (inv *invocation) cancelled(ctx context.Context, err error) error {
	cerr := &CancelledError{Attempts: inv.attempts, Err: err}
	inv.loop.getLogger().Info("repair %s: %v", inv.id, cerr)
	inv.emit(ctx, EventCancelled, inv.last(), cerr)
	inv.record(ctx, store.OutcomeCancelled, nil, cerr)
	return cerr
}

func (inv *invocation) last() Attempt {
	if len(inv.attempts) == 0 {
		return Attempt{Index: -1}
	}
	return inv.attempts[len(inv.attempts)-1]
}

func (inv *invocation) emit(ctx context.Context, typ EventType, attempt Attempt, err error) {
	l := inv.loop
	if len(l.listeners) == 0 {
		return
	}
	event := Event{
		Type:         typ,
		InvocationID: inv.id,
		Session:      l.session,
		Attempt:      attempt,
		Err:          err,
		Timestamp:    time.Now(),
	}
	for _, listener := range l.listeners {
		inv.notify(ctx, listener, event)
	}
}

func (inv *invocation) notify(ctx context.Context, listener Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			inv.loop.getLogger().Error("repair %s: listener panicked on %s: %v", inv.id, event.Type, r)
		}
	}()
	listener.OnRepairEvent(ctx, event)
}

// record saves the trail. Store failures are logged and never change the
// outcome of the Run.
func (inv *invocation) record(ctx context.Context, outcome store.Outcome, rec schema.Record, runErr error) {
	l := inv.loop
	if l.trails == nil {
		return
	}

	trail := &store.Trail{
		ID:          inv.id,
		SessionID:   l.session,
		Instruction: inv.instruction,
		Attempts:    make([]store.AttemptRecord, 0, len(inv.attempts)),
		Outcome:     outcome,
		Record:      rec,
		Metadata:    l.metadata,
		Timestamp:   time.Now(),
	}
	for _, a := range inv.attempts {
		ar := store.AttemptRecord{
			Index:       a.Index,
			Instruction: a.Instruction,
			Raw:         a.Raw,
			Failure:     string(a.Failure),
			Duration:    a.Duration,
		}
		if a.Err != nil {
			ar.Error = a.Err.Error()
		}
		trail.Attempts = append(trail.Attempts, ar)
	}
	if runErr != nil {
		trail.Error = runErr.Error()
	}

	if err := l.trails.Save(context.WithoutCancel(ctx), trail); err != nil {
		l.getLogger().Error("repair %s: failed to save trail: %v", inv.id, err)
	}
}

// IsExhausted reports whether err is, or wraps, an *ExhaustedError.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrBudgetExhausted)
}
