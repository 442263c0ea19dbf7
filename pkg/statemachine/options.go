package statemachine

import (
	"errors"
	"fmt"
)

// Option configures a machine during construction.
type Option[S, E ~string] func(*Machine[S, E]) error

// TransitionOption configures guards and actions of a single transition.
type TransitionOption[S, E ~string] func(*Transition[S, E])

// New creates a machine in the initial state with the given options applied.
func New[S, E ~string](initial S, opts ...Option[S, E]) (*Machine[S, E], error) {
	if initial == "" {
		return nil, errors.New("initial state cannot be empty")
	}

	m := &Machine[S, E]{
		initial:     initial,
		current:     initial,
		transitions: make(map[S]map[E][]Transition[S, E]),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is like New but panics on a misconfigured transition table.
func MustNew[S, E ~string](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

// WithTransition adds a single transition.
func WithTransition[S, E ~string](from, to S, event E, opts ...TransitionOption[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		t := Transition[S, E]{From: from, To: to, Event: event}
		for _, opt := range opts {
			opt(&t)
		}
		if err := m.AddTransition(t); err != nil {
			return fmt.Errorf("failed to add transition %s->%s on %s: %w", from, to, event, err)
		}
		return nil
	}
}

// WithTransitionFrom adds the same transition for every state in from.
func WithTransitionFrom[S, E ~string](from []S, to S, event E, opts ...TransitionOption[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		for _, f := range from {
			if err := WithTransition(f, to, event, opts...)(m); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithGuard adds a guard to a transition. Nil guards are ignored.
func WithGuard[S, E ~string](guard Guard[S, E]) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		if guard != nil {
			t.Guards = append(t.Guards, guard)
		}
	}
}

// WithAction adds an action to a transition. Nil actions are ignored.
func WithAction[S, E ~string](action Action[S, E]) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		if action != nil {
			t.Actions = append(t.Actions, action)
		}
	}
}

// WithActions adds several actions to a transition, preserving order.
func WithActions[S, E ~string](actions ...Action[S, E]) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		for _, action := range actions {
			WithAction(action)(t)
		}
	}
}
