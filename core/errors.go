package core

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by all components. Validation errors are returned
// synchronously to the caller of the mutating operation; a failed operation
// leaves every store in its prior consistent state.
var (
	// ErrUnknownAgent is returned when a sender, recipient or participant
	// does not exist in the registry.
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrDuplicateParticipant is returned when a participant or member list
	// contains a repeated name, or includes the initiator itself.
	ErrDuplicateParticipant = errors.New("duplicate participant")

	// ErrInvalidMessage is returned when a message violates its structural
	// invariants (unknown type or priority, malformed correlation, ...).
	ErrInvalidMessage = errors.New("invalid message")

	// ErrInvalidKnowledge is returned when a knowledge item violates its
	// creation invariants (empty applicability, unknown source).
	ErrInvalidKnowledge = errors.New("invalid knowledge item")

	// ErrDanglingCorrelation is returned when a response message references
	// a correlation id that matches no pending, unanswered request.
	ErrDanglingCorrelation = errors.New("dangling correlation id")

	// ErrInvalidFilter is returned when a knowledge query filter carries an
	// out-of-range confidence bound or an unknown category.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidDeadline is returned when a team deadline is not strictly in
	// the future at formation time.
	ErrInvalidDeadline = errors.New("invalid deadline")

	// ErrInvalidBudget is returned when a resource budget field is negative.
	ErrInvalidBudget = errors.New("invalid budget")

	// ErrInvalidTransition is returned when a session or team status change
	// would regress from or leave a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDependencyNotReady is returned when a component is used or
	// initialized before the components it depends on are ready.
	ErrDependencyNotReady = errors.New("dependency not ready")

	// ErrAlreadyInitialized is returned when concurrent initialization
	// attempts race in a way that would corrupt state.
	ErrAlreadyInitialized = errors.New("already initialized")

	// ErrNotReady is returned by the orchestrator for operations issued
	// before initialization has completed successfully.
	ErrNotReady = errors.New("coordinator not ready")

	// ErrNotFound is returned when a message, item, session or team id does
	// not resolve to a stored entity.
	ErrNotFound = errors.New("not found")
)

// InitError reports which initialization stage failed. Re-initialization
// restarts from the failed stage.
type InitError struct {
	Stage string
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initialization failed at stage %q: %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }
