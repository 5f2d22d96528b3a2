package fsm

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionDictationCycle(t *testing.T) {
	state := StateIdle
	for _, step := range []struct {
		event Event
		want  State
	}{
		{EventStart, StateRecording},
		{EventStop, StateTranscribing},
		{EventTranscribed, StateIdle},
		{EventStart, StateRecording},
		{EventCancel, StateIdle},
	} {
		next, err := Transition(state, step.event)
		require.NoError(t, err, "%s --(%s)", state, step.event)
		require.Equal(t, step.want, next)
		state = next
	}
}

func TestTransitionFailAndReset(t *testing.T) {
	for _, from := range []State{StateIdle, StateRecording, StateTranscribing, StateError, State("mystery")} {
		next, err := Transition(from, EventFail)
		require.NoError(t, err)
		require.Equal(t, StateError, next, from)
	}

	next, err := Transition(StateError, EventReset)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionRejectsEdgesOutsideTheTable(t *testing.T) {
	allowed := map[State][]Event{
		StateIdle:         {EventStart, EventFail},
		StateRecording:    {EventStop, EventCancel, EventFail},
		StateTranscribing: {EventTranscribed, EventCancel, EventFail},
		StateError:        {EventReset, EventFail},
	}
	events := []Event{EventStart, EventStop, EventCancel, EventTranscribed, EventFail, EventReset}

	for from, ok := range allowed {
		for _, event := range events {
			next, err := Transition(from, event)
			if slices.Contains(ok, event) {
				require.NoError(t, err, "%s --(%s)", from, event)
				continue
			}
			require.ErrorIs(t, err, ErrInvalidTransition, "%s --(%s)", from, event)
			require.Equal(t, from, next, "rejected transitions keep the state")

			var terr *TransitionError
			require.ErrorAs(t, err, &terr)
			require.Equal(t, string(from), terr.From)
			require.Equal(t, string(event), terr.Event)
		}
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventStart)
	require.ErrorContains(t, err, `unknown state "mystery"`)
	require.NotErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, State("mystery"), next)
}

func TestTransitionErrorMessage(t *testing.T) {
	_, err := Transition(StateIdle, EventStop)
	require.EqualError(t, err, "invalid transition: idle --(stop)--> ?")
}
