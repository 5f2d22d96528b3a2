// Package fsm holds the small state machines that gate capture and macro binding.
package fsm

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition matches every TransitionError.
var ErrInvalidTransition = errors.New("invalid transition")

// TransitionError names the rejected edge.
type TransitionError struct {
	From  string
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s --(%s)--> ?", e.From, e.Event)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// machine is a transition table. Events listed in always apply from every
// state, including states the table does not know.
type machine[S ~string, E ~string] struct {
	name   string
	edges  map[S]map[E]S
	always map[E]S
}

func (m machine[S, E]) step(from S, event E) (S, error) {
	if to, ok := m.always[event]; ok {
		return to, nil
	}
	out, known := m.edges[from]
	if !known {
		return from, fmt.Errorf("unknown %s %q", m.name, string(from))
	}
	to, ok := out[event]
	if !ok {
		return from, &TransitionError{From: string(from), Event: string(event)}
	}
	return to, nil
}
