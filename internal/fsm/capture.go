package fsm

// State is the capture lifecycle of the session owner.
type State string

// Event drives State.
type Event string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
	StateError        State = "error"
)

const (
	EventStart       Event = "start"
	EventStop        Event = "stop"
	EventCancel      Event = "cancel"
	EventTranscribed Event = "transcribed"
	EventFail        Event = "fail"
	EventReset       Event = "reset"
)

func (s State) String() string { return string(s) }

// A pending transcription may be cancelled; its late result is discarded by
// the caller.
var capture = machine[State, Event]{
	name: "state",
	edges: map[State]map[Event]State{
		StateIdle:         {EventStart: StateRecording},
		StateRecording:    {EventStop: StateTranscribing, EventCancel: StateIdle},
		StateTranscribing: {EventTranscribed: StateIdle, EventCancel: StateIdle},
		StateError:        {EventReset: StateIdle},
	},
	always: map[Event]State{EventFail: StateError},
}

// Transition advances the capture lifecycle. On error the current state is
// returned unchanged.
func Transition(current State, event Event) (State, error) {
	return capture.step(current, event)
}
