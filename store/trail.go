package store

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrTrailNotFound is wrapped by Load and Delete when no trail has the given ID.
var ErrTrailNotFound = errors.New("trail not found")

// Outcome is how a repair invocation ended.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeTransport Outcome = "transport_failure"
	OutcomeCancelled Outcome = "cancelled"
)

// AttemptRecord is one generation request and its decode result.
type AttemptRecord struct {
	Index       int           `json:"index"`
	Instruction string        `json:"instruction"`
	Raw         string        `json:"raw"`
	Failure     string        `json:"failure,omitempty"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Trail is the persisted history of one repair invocation.
type Trail struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id"`
	Instruction string          `json:"instruction"`
	Attempts    []AttemptRecord `json:"attempts"`
	Outcome     Outcome         `json:"outcome"`
	Record      map[string]any  `json:"record,omitempty"`
	Error       string          `json:"error,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// TrailStore persists trails grouped by session.
type TrailStore interface {
	// Save stores a trail, replacing any trail with the same ID
	Save(ctx context.Context, trail *Trail) error

	// Load retrieves a trail by ID
	Load(ctx context.Context, trailID string) (*Trail, error)

	// List returns the trails of a session, oldest first
	List(ctx context.Context, sessionID string) ([]*Trail, error)

	// Delete removes a trail
	Delete(ctx context.Context, trailID string) error

	// Clear removes every trail of a session
	Clear(ctx context.Context, sessionID string) error
}

// SortByTimestamp orders trails oldest first, breaking ties by ID.
func SortByTimestamp(trails []*Trail) {
	sort.SliceStable(trails, func(i, j int) bool {
		if trails[i].Timestamp.Equal(trails[j].Timestamp) {
			return trails[i].ID < trails[j].ID
		}
		return trails[i].Timestamp.Before(trails[j].Timestamp)
	})
}
