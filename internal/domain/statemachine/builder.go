package statemachine

import (
	"context"
	"fmt"
)

// GuardFunc evaluates whether a transition should be allowed
type GuardFunc func(ctx context.Context) bool

// Builder configures the transition table of a state machine
type Builder[S State, T Trigger] interface {
	// Configure returns the configuration for transitions leaving state
	Configure(state S) StateConfiguration[S, T]

	// Build creates a machine positioned at initialState
	Build(initialState S) StateMachine[S, T]
}

// StateConfiguration configures transitions for a specific state
type StateConfiguration[S State, T Trigger] interface {
	// Permit allows trigger to move to toState
	Permit(trigger T, toState S) StateConfiguration[S, T]

	// PermitIf allows trigger to move to toState when guard passes
	PermitIf(trigger T, toState S, guard GuardFunc) StateConfiguration[S, T]
}

type transition[S State] struct {
	toState S
	guard   GuardFunc
}

type stateConfig[S State, T Trigger] struct {
	fromState   S
	transitions map[T][]transition[S]
}

type builder[S State, T Trigger] struct {
	configurations map[S]*stateConfig[S, T]
}

type machine[S State, T Trigger] struct {
	currentState   S
	configurations map[S]*stateConfig[S, T]
}

// NewBuilder creates an empty builder
func NewBuilder[S State, T Trigger]() Builder[S, T] {
	return &builder[S, T]{
		configurations: make(map[S]*stateConfig[S, T]),
	}
}

func (b *builder[S, T]) Configure(state S) StateConfiguration[S, T] {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig[S, T]{
			fromState:   state,
			transitions: make(map[T][]transition[S]),
		}
		b.configurations[state] = config
	}

	return config
}

// Build snapshots the transition table so later Configure calls do not leak into built machines
func (b *builder[S, T]) Build(initialState S) StateMachine[S, T] {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	configsCopy := make(map[S]*stateConfig[S, T], len(b.configurations))
	for state, config := range b.configurations {
		transitionsCopy := make(map[T][]transition[S], len(config.transitions))
		for trigger, ts := range config.transitions {
			transitionsCopy[trigger] = append([]transition[S]{}, ts...)
		}
		configsCopy[state] = &stateConfig[S, T]{
			fromState:   state,
			transitions: transitionsCopy,
		}
	}

	return &machine[S, T]{
		currentState:   initialState,
		configurations: configsCopy,
	}
}

func (c *stateConfig[S, T]) Permit(trigger T, toState S) StateConfiguration[S, T] {
	return c.PermitIf(trigger, toState, nil)
}

func (c *stateConfig[S, T]) PermitIf(trigger T, toState S, guard GuardFunc) StateConfiguration[S, T] {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}

	c.transitions[trigger] = append(c.transitions[trigger], transition[S]{
		toState: toState,
		guard:   guard,
	})

	return c
}

func (m *machine[S, T]) State() S {
	return m.currentState
}

// CanFire does not evaluate guards; it only reports whether the trigger is configured
func (m *machine[S, T]) CanFire(trigger T) bool {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return false
	}
	return len(config.transitions[trigger]) > 0
}

func (m *machine[S, T]) Fire(ctx context.Context, trigger T) error {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return fmt.Errorf("%w: cannot fire trigger %s from state %s (no configuration)", ErrInvalidTransition, trigger, m.currentState)
	}

	transitions := config.transitions[trigger]
	if len(transitions) == 0 {
		return fmt.Errorf("%w: cannot fire trigger %s from state %s", ErrInvalidTransition, trigger, m.currentState)
	}

	// First transition whose guard passes wins
	for _, t := range transitions {
		if t.guard == nil || t.guard(ctx) {
			m.currentState = t.toState
			return nil
		}
	}

	return fmt.Errorf("%w: trigger %s from state %s", ErrGuardFailed, trigger, m.currentState)
}

func (m *machine[S, T]) PermittedTriggers() []T {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return []T{}
	}

	triggers := make([]T, 0, len(config.transitions))
	for trigger := range config.transitions {
		triggers = append(triggers, trigger)
	}

	return triggers
}
