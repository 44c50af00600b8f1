package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/smallnest/langfix/repair"
)

// Tracing is a repair.Listener that emits OpenTelemetry spans: one
// "repair.invocation" span per Run with a "repair.attempt" child per attempt.
type Tracing struct {
	tracer oteltrace.Tracer
	mu     sync.Mutex
	runs   map[string]*runSpans
}

type runSpans struct {
	ctx     context.Context
	root    oteltrace.Span
	attempt oteltrace.Span
}

var _ repair.Listener = (*Tracing)(nil)

// NewTracing creates a tracing listener.
func NewTracing(tracer oteltrace.Tracer) *Tracing {
	return &Tracing{
		tracer: tracer,
		runs:   make(map[string]*runSpans),
	}
}

// OnRepairEvent implements repair.Listener.
func (t *Tracing) OnRepairEvent(ctx context.Context, e repair.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	run := t.runs[e.InvocationID]

	if e.Type == repair.EventAttemptStart {
		if run == nil {
			rctx, root := t.tracer.Start(ctx, "repair.invocation",
				oteltrace.WithAttributes(
					attribute.String("repair.invocation_id", e.InvocationID),
					attribute.String("repair.session", e.Session),
				),
			)
			run = &runSpans{ctx: rctx, root: root}
			t.runs[e.InvocationID] = run
		}
		_, run.attempt = t.tracer.Start(run.ctx, "repair.attempt",
			oteltrace.WithAttributes(
				attribute.Int("repair.attempt.index", e.Attempt.Index),
				attribute.Int("repair.attempt.instruction_length", len(e.Attempt.Instruction)),
			),
		)
		return
	}

	if run == nil {
		return
	}

	switch e.Type {
	case repair.EventAttemptSuccess, repair.EventAttemptFailure, repair.EventTransportFailure:
		if run.attempt != nil {
			endAttempt(run.attempt, e)
			run.attempt = nil
		}
	}

	if e.Type.Terminal() {
		if run.attempt != nil {
			run.attempt.End()
		}
		run.root.SetAttributes(
			attribute.String("repair.outcome", string(e.Type)),
			attribute.Int("repair.calls", e.Attempt.Index+1),
		)
		if e.Err != nil {
			run.root.RecordError(e.Err)
			run.root.SetStatus(codes.Error, e.Err.Error())
		} else {
			run.root.SetStatus(codes.Ok, "")
		}
		run.root.End()
		delete(t.runs, e.InvocationID)
	}
}

func endAttempt(span oteltrace.Span, e repair.Event) {
	span.SetAttributes(
		attribute.Int("repair.attempt.output_length", len(e.Attempt.Raw)),
		attribute.String("repair.attempt.failure", string(e.Attempt.Failure)),
	)
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
