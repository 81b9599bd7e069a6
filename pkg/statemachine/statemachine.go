package statemachine

import (
	"context"
	"fmt"
)

// Guard evaluates whether a transition should be allowed based on runtime conditions.
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Transition defines a state change triggered by an event.
type Transition[S, E comparable] struct {
	From   S
	To     S
	Event  E
	Guards []Guard[S, E] // All must pass for transition to proceed
}

// Machine is a transition table keyed by [from][event].
type Machine[S, E comparable] struct {
	transitions map[S]map[E][]Transition[S, E]
}

func newMachine[S, E comparable]() *Machine[S, E] {
	return &Machine[S, E]{transitions: make(map[S]map[E][]Transition[S, E])}
}

func (m *Machine[S, E]) add(t Transition[S, E]) {
	if _, ok := m.transitions[t.From]; !ok {
		m.transitions[t.From] = make(map[E][]Transition[S, E])
	}
	// Multiple transitions allowed for same from/event to support guard-based branching
	m.transitions[t.From][t.Event] = append(m.transitions[t.From][t.Event], t)
}

// Fire returns the state reached from `from` on event. On error the caller
// should keep its current state.
func (m *Machine[S, E]) Fire(ctx context.Context, from S, event E, data any) (S, error) {
	t, err := m.match(ctx, from, event, data)
	if err != nil {
		return from, err
	}
	return t.To, nil
}

// CanFire reports whether Fire would find a transition whose guards pass.
func (m *Machine[S, E]) CanFire(ctx context.Context, from S, event E, data any) bool {
	_, err := m.match(ctx, from, event, data)
	return err == nil
}

func (m *Machine[S, E]) match(ctx context.Context, from S, event E, data any) (*Transition[S, E], error) {
	transitions := m.transitions[from][event]
	if len(transitions) == 0 {
		return nil, NewErrNoTransitionAvailable(fmt.Sprint(from), fmt.Sprint(event))
	}

	// First transition with passing guards wins
	for i := range transitions {
		if guardsPass(ctx, transitions[i].Guards, from, event, data) {
			return &transitions[i], nil
		}
	}
	return nil, NewErrTransitionRejected(fmt.Sprint(from), fmt.Sprint(event))
}

func guardsPass[S, E comparable](ctx context.Context, guards []Guard[S, E], from S, event E, data any) bool {
	for _, guard := range guards {
		if !guard(ctx, from, event, data) {
			return false
		}
	}
	return true
}
