package repair

import (
	"context"
	"time"
)

// EventType identifies a point in the life of a Run.
type EventType string

const (
	// EventAttemptStart fires before each generator call
	EventAttemptStart EventType = "attempt_start"

	// EventAttemptSuccess fires when an attempt decodes into a valid record
	EventAttemptSuccess EventType = "attempt_success"

	// EventAttemptFailure fires when an attempt fails to decode
	EventAttemptFailure EventType = "attempt_failure"

	// EventTransportFailure fires when the generator returns an error
	EventTransportFailure EventType = "transport_failure"

	// EventExhausted fires after the last allowed attempt failed
	EventExhausted EventType = "exhausted"

	// EventCancelled fires when the context ends before a generation
	EventCancelled EventType = "cancelled"
)

// Terminal reports whether no further events follow for the invocation.
func (t EventType) Terminal() bool {
	switch t {
	case EventAttemptSuccess, EventTransportFailure, EventExhausted, EventCancelled:
		return true
	}
	return false
}

// Event is delivered to listeners in the order things happen within one Run.
type Event struct {
	Type EventType

	// InvocationID identifies the Run; it is also the trail ID
	InvocationID string

	// Session is the trail session, empty when no store is configured
	Session string

	// Attempt is the attempt the event is about. For EventAttemptStart only
	// Index and Instruction are set. For EventExhausted and EventCancelled it
	// is the last finished attempt, if any.
	Attempt Attempt

	// Err is the failure, nil for EventAttemptStart and EventAttemptSuccess
	Err error

	Timestamp time.Time
}

// Listener observes repair events. Listeners are called synchronously and
// must be safe for concurrent use when a Loop is shared.
type Listener interface {
	OnRepairEvent(ctx context.Context, event Event)
}

// ListenerFunc is a function adapter for Listener
type ListenerFunc func(ctx context.Context, event Event)

// OnRepairEvent implements the Listener interface
func (f ListenerFunc) OnRepairEvent(ctx context.Context, event Event) {
	f(ctx, event)
}
