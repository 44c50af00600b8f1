package repair

import "fmt"

// Budget decides how many repair instructions a single Run may issue.
type Budget interface {
	// MaxCalls is the upper bound on generator calls for one Run
	MaxCalls() int

	validate() error
	counter() counter
}

// counter is the per-invocation state of a Budget.
type counter interface {
	// spend reports whether another repair is allowed after a failure of kind
	spend(kind FailureKind) bool
}

// SharedBudget counts structural and constraint repairs against one limit.
type SharedBudget struct {
	Repairs int
}

// MaxCalls implements Budget
func (b SharedBudget) MaxCalls() int {
	return 1 + b.Repairs
}

func (b SharedBudget) validate() error {
	if b.Repairs < 0 {
		return fmt.Errorf("repair budget cannot be negative: %d", b.Repairs)
	}
	return nil
}

func (b SharedBudget) counter() counter {
	return &sharedCounter{left: b.Repairs}
}

type sharedCounter struct {
	left int
}

func (c *sharedCounter) spend(FailureKind) bool {
	if c.left <= 0 {
		return false
	}
	c.left--
	return true
}

// SeparateBudgets tracks structural and constraint repairs independently.
// A Run stops as soon as the failure kind it just saw has no repairs left.
type SeparateBudgets struct {
	Structural int
	Constraint int
}

// MaxCalls implements Budget
func (b SeparateBudgets) MaxCalls() int {
	return 1 + b.Structural + b.Constraint
}

func (b SeparateBudgets) validate() error {
	if b.Structural < 0 || b.Constraint < 0 {
		return fmt.Errorf("repair budgets cannot be negative: structural=%d constraint=%d", b.Structural, b.Constraint)
	}
	return nil
}

func (b SeparateBudgets) counter() counter {
	return &separateCounter{structural: b.Structural, constraint: b.Constraint}
}

type separateCounter struct {
	structural int
	constraint int
}

func (c *separateCounter) spend(kind FailureKind) bool {
	left := &c.structural
	if kind == FailureConstraint {
		left = &c.constraint
	}
	if *left <= 0 {
		return false
	}
	*left--
	return true
}
