// Package fault classifies the errors returned by the game core so that a
// command dispatcher can decide how to surface them.
package fault

import (
	"errors"
	"fmt"
)

// Kind is the broad category of a core error.
type Kind int

const (
	// Unknown is returned for errors that carry no classification.
	Unknown Kind = iota
	// Validation marks bad arguments, rejected before any mutation.
	Validation
	// StateConflict marks an action rejected by current state (cooldown, event status).
	StateConflict
	// Resource marks insufficient materials, items or skill.
	Resource
	// ExternalAuthority marks a rejected role assignment. Never fatal to a command.
	ExternalAuthority
	// Persistence marks a failed Store read or write. Always fatal to the operation.
	Persistence
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case StateConflict:
		return "state_conflict"
	case Resource:
		return "resource"
	case ExternalAuthority:
		return "external_authority"
	case Persistence:
		return "persistence"
	}
	return "unknown"
}

// Classified is implemented by every typed error of the core.
type Classified interface {
	error
	Kind() Kind
}

// KindOf walks the wrap chain of err and returns the first classification found.
func KindOf(err error) Kind {
	var c Classified
	if errors.As(err, &c) {
		return c.Kind()
	}
	return Unknown
}

// ValidationError reports an argument the core refuses to act on.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
func (e *ValidationError) Kind() Kind    { return Validation }

// Invalid builds a ValidationError from a format string.
func Invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a Store failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }
func (e *PersistenceError) Kind() Kind    { return Persistence }

// ExternalAuthorityError reports a role change the authority refused.
type ExternalAuthorityError struct {
	Player string
	Reason string
	Err    error
}

func (e *ExternalAuthorityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("role authority rejected change for %s: %s: %v", e.Player, e.Reason, e.Err)
	}
	return fmt.Sprintf("role authority rejected change for %s: %s", e.Player, e.Reason)
}
func (e *ExternalAuthorityError) Unwrap() error { return e.Err }
func (e *ExternalAuthorityError) Kind() Kind    { return ExternalAuthority }
