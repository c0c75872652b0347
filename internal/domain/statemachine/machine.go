// Package statemachine provides a small guarded finite state machine used by the
// lifecycle aggregates. Machines are configured once through a Builder and then
// instantiated per aggregate with its current state.
package statemachine

import "context"

// State is implemented by the status types of an aggregate
type State interface {
	comparable
	IsValid() bool
	String() string
}

// Trigger is implemented by the event types that move an aggregate between states
type Trigger interface {
	comparable
	String() string
}

// StateMachine tracks a current state and validates transitions
type StateMachine[S State, T Trigger] interface {
	// State returns the current state
	State() S

	// CanFire returns true if the trigger is configured for the current state
	CanFire(trigger T) bool

	// Fire attempts to execute the trigger, transitioning to the new state if allowed
	Fire(ctx context.Context, trigger T) error

	// PermittedTriggers returns all triggers configured for the current state
	PermittedTriggers() []T
}
