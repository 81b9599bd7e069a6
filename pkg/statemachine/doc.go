// Package statemachine provides an immutable transition table for finite
// state machines whose current state is stored by the caller.
//
// A Machine holds no current state of its own. It answers "given state S and
// event E, where do we go?" after evaluating guards, so a single Machine can
// drive any number of independently tracked entities, such as every
// notification in a list.
//
// # Usage
//
//	type state string
//	type event string
//
//	m, err := statemachine.NewBuilder[state, event]().
//	    From("synced").When("mark_read").To("pending_read").Add().
//	    From("pending_read").When("confirm").To("synced").Add().
//	    Build()
//
//	next, err := m.Fire(ctx, "synced", "mark_read", nil)
//
// # Guards
//
// Guards veto a transition based on runtime data. When several transitions
// share the same source and event, the first one whose guards all pass wins.
//
// # Error Handling
//
//	if statemachine.IsNoTransitionAvailableError(err) { /* undefined */ }
//	if statemachine.IsTransitionRejectedError(err)   { /* guard said no */ }
//
// A Machine is safe for concurrent use once constructed.
package statemachine
