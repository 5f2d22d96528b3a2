package fsm

// Binding is whether a document has a macro attached.
type Binding string

// BindingEvent drives Binding.
type BindingEvent string

const (
	BindingNone   Binding = "no_macro"
	BindingLoaded Binding = "macro_loaded"
)

const (
	BindingLoad   BindingEvent = "load"
	BindingFill   BindingEvent = "fill"
	BindingAppend BindingEvent = "append"
	BindingClear  BindingEvent = "clear"
)

func (b Binding) String() string { return string(b) }

// Appending dictation is legal without a macro; filling a field is not.
// Loading replaces whatever macro was bound.
var binding = machine[Binding, BindingEvent]{
	name: "binding",
	edges: map[Binding]map[BindingEvent]Binding{
		BindingNone:   {BindingLoad: BindingLoaded, BindingAppend: BindingNone},
		BindingLoaded: {BindingLoad: BindingLoaded, BindingFill: BindingLoaded, BindingAppend: BindingLoaded},
	},
	always: map[BindingEvent]Binding{BindingClear: BindingNone},
}

// Bind advances the macro binding. On error the current binding is returned
// unchanged.
func Bind(current Binding, event BindingEvent) (Binding, error) {
	return binding.step(current, event)
}
