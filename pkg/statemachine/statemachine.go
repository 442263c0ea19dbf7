package statemachine

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Action executes side effects during a transition. Returning an error aborts
// the transition and leaves the machine in its current state.
type Action[S, E ~string] func(ctx context.Context, from, to S, event E, data any) error

// Guard decides whether a transition may proceed given runtime data.
type Guard[S, E ~string] func(ctx context.Context, from S, event E, data any) bool

// Transition defines a state change triggered by an event.
type Transition[S, E ~string] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // all must pass
	Actions []Action[S, E] // run in order before the state changes
}

// Machine is a finite state machine over string-typed states and events.
//
// Fire calls are serialized, but the state lock is held only while looking up
// and committing a transition, so Current never waits on a slow action.
type Machine[S, E ~string] struct {
	initial     S
	current     S
	transitions map[S]map[E][]Transition[S, E]

	fireMu sync.Mutex
	mu     sync.RWMutex
}

// Current returns the state the machine is in.
func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the current state is one of states.
func (m *Machine[S, E]) Is(states ...S) bool {
	return slices.Contains(states, m.Current())
}

// AddTransition registers a transition. Several transitions may share the
// same from/event pair; the first one whose guards pass wins.
func (m *Machine[S, E]) AddTransition(t Transition[S, E]) error {
	if t.From == "" || t.To == "" || t.Event == "" {
		return ErrInvalidTransition
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transitions[t.From]; !ok {
		m.transitions[t.From] = make(map[E][]Transition[S, E])
	}
	m.transitions[t.From][t.Event] = append(m.transitions[t.From][t.Event], t)
	return nil
}

// Fire applies event to the current state.
func (m *Machine[S, E]) Fire(ctx context.Context, event E, data any) error {
	if event == "" {
		return ErrInvalidEvent
	}

	m.fireMu.Lock()
	defer m.fireMu.Unlock()

	from := m.Current()
	t, err := m.lookup(ctx, from, event, data)
	if err != nil {
		return err
	}

	for _, action := range t.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, from, t.To, event, data); err != nil {
			return fmt.Errorf("action failed: %w", err)
		}
	}

	m.mu.Lock()
	m.current = t.To
	m.mu.Unlock()
	return nil
}

// CanFire reports whether event would be accepted in the current state.
func (m *Machine[S, E]) CanFire(ctx context.Context, event E, data any) bool {
	if event == "" {
		return false
	}
	_, err := m.lookup(ctx, m.Current(), event, data)
	return err == nil
}

// Reset returns the machine to its initial state.
func (m *Machine[S, E]) Reset() {
	m.fireMu.Lock()
	defer m.fireMu.Unlock()

	m.mu.Lock()
	m.current = m.initial
	m.mu.Unlock()
}

func (m *Machine[S, E]) lookup(ctx context.Context, from S, event E, data any) (Transition[S, E], error) {
	m.mu.RLock()
	candidates := m.transitions[from][event]
	m.mu.RUnlock()

	if len(candidates) == 0 {
		return Transition[S, E]{}, &TransitionError{State: string(from), Event: string(event), Err: ErrNoTransition}
	}

	for _, t := range candidates {
		if allow(ctx, t.Guards, from, event, data) {
			return t, nil
		}
	}
	return Transition[S, E]{}, &TransitionError{State: string(from), Event: string(event), Err: ErrRejected}
}

func allow[S, E ~string](ctx context.Context, guards []Guard[S, E], from S, event E, data any) bool {
	for _, guard := range guards {
		if guard != nil && !guard(ctx, from, event, data) {
			return false
		}
	}
	return true
}
