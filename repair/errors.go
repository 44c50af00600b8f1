package repair

import (
	"errors"
	"fmt"
)

// ErrBudgetExhausted is matched by every *ExhaustedError via errors.Is.
var ErrBudgetExhausted = errors.New("repair budget exhausted")

// TransportError reports a generator failure. The loop stops at the first one.
type TransportError struct {
	// Attempt is the index of the attempt whose generation failed
	Attempt int

	// Attempts holds every attempt up to and including the failed one
	Attempts []Attempt

	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("generation failed on attempt %d: %v", e.Attempt, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ExhaustedError reports that every allowed attempt failed to decode.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	if last := e.LastErr(); last != nil {
		return fmt.Sprintf("repair budget exhausted after %d attempt(s): %v", len(e.Attempts), last)
	}
	return fmt.Sprintf("repair budget exhausted after %d attempt(s)", len(e.Attempts))
}

// Is reports whether target is ErrBudgetExhausted.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrBudgetExhausted
}

// LastRaw returns the output of the final attempt.
func (e *ExhaustedError) LastRaw() string {
	if len(e.Attempts) == 0 {
		return ""
	}
	return e.Attempts[len(e.Attempts)-1].Raw
}

// LastErr returns the decode error of the final attempt.
func (e *ExhaustedError) LastErr() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// Messages returns the error text of every attempt in order.
func (e *ExhaustedError) Messages() []string {
	msgs := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Err != nil {
			msgs = append(msgs, a.Err.Error())
		}
	}
	return msgs
}

// CancelledError reports that the context ended before the next generation.
type CancelledError struct {
	// Attempts holds the attempts completed before cancellation
	Attempts []Attempt

	Err error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("repair cancelled after %d attempt(s): %v", len(e.Attempts), e.Err)
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}
