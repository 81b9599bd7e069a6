package statemachine

// Builder provides a fluent API for building machines.
type Builder[S, E comparable] struct {
	machine *Machine[S, E]
	current Transition[S, E]
	hasFrom bool
	hasTo   bool
	hasWhen bool
	err     error
}

// NewBuilder creates an empty builder.
func NewBuilder[S, E comparable]() *Builder[S, E] {
	return &Builder[S, E]{machine: newMachine[S, E]()}
}

// From sets the source state of the transition being built.
func (b *Builder[S, E]) From(state S) *Builder[S, E] {
	b.reset()
	b.current.From = state
	b.hasFrom = true
	return b
}

// When sets the triggering event.
func (b *Builder[S, E]) When(event E) *Builder[S, E] {
	b.current.Event = event
	b.hasWhen = true
	return b
}

// To sets the target state.
func (b *Builder[S, E]) To(state S) *Builder[S, E] {
	b.current.To = state
	b.hasTo = true
	return b
}

// Guard adds a condition to the transition being built. A nil guard is
// recorded as ErrNilCallback.
func (b *Builder[S, E]) Guard(guard Guard[S, E]) *Builder[S, E] {
	if guard == nil {
		if b.err == nil {
			b.err = ErrNilCallback
		}
		return b
	}
	b.current.Guards = append(b.current.Guards, guard)
	return b
}

// Add commits the current transition. An incomplete transition is recorded
// as an error returned by Build.
func (b *Builder[S, E]) Add() *Builder[S, E] {
	if !(b.hasFrom && b.hasWhen && b.hasTo) {
		if b.err == nil {
			b.err = ErrIncompleteBuild
		}
	} else {
		b.machine.add(b.current)
	}
	b.reset()
	return b
}

// Build returns the machine or the first error recorded while building.
func (b *Builder[S, E]) Build() (*Machine[S, E], error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.machine, nil
}

func (b *Builder[S, E]) reset() {
	b.current = Transition[S, E]{}
	b.hasFrom, b.hasWhen, b.hasTo = false, false, false
}
