// Package command classifies one transcribed utterance into a typed command.
package command

// Kind is the stable, machine-readable name of a command variant.
type Kind string

const (
	KindLoadMacro             Kind = "load_macro"
	KindFillField             Kind = "fill_field"
	KindPasteBuffer           Kind = "paste_buffer"
	KindUndoPaste             Kind = "undo_paste"
	KindUndo                  Kind = "undo"
	KindRedo                  Kind = "redo"
	KindRemoveLastUnit        Kind = "remove_last_unit"
	KindClearBuffer           Kind = "clear_buffer"
	KindShowUnfilledFields    Kind = "show_unfilled_fields"
	KindInsertFormatting      Kind = "insert_formatting"
	KindProcessWithExtraction Kind = "process_with_extraction"
	KindAppendText            Kind = "append_text"
)

// Command is the closed set of parsed commands. Only types in this package
// implement it.
type Command interface {
	Kind() Kind
	sealed()
}

// LoadMacro binds the document to the template registered under Key.
type LoadMacro struct {
	Key string
}

// FillField sets one placeholder. Value keeps the dictated casing.
type FillField struct {
	Field string
	Value string
}

type PasteBuffer struct{}

type UndoPaste struct{}

// Undo reverts the last buffer mutation.
type Undo struct{}

// Redo re-applies the last undone buffer mutation.
type Redo struct{}

// RemoveLastUnit drops the most recently appended phrase unit.
type RemoveLastUnit struct{}

type ClearBuffer struct{}

// ShowUnfilledFields is a pure query.
type ShowUnfilledFields struct{}

// InsertFormatting appends a punctuation or break unit.
type InsertFormatting struct {
	Mark Mark
}

// ProcessWithExtraction routes the dictated buffer through field resolution.
type ProcessWithExtraction struct{}

// AppendText appends free dictation.
type AppendText struct {
	Text string
}

func (LoadMacro) Kind() Kind             { return KindLoadMacro }
func (FillField) Kind() Kind             { return KindFillField }
func (PasteBuffer) Kind() Kind           { return KindPasteBuffer }
func (UndoPaste) Kind() Kind             { return KindUndoPaste }
func (Undo) Kind() Kind                  { return KindUndo }
func (Redo) Kind() Kind                  { return KindRedo }
func (RemoveLastUnit) Kind() Kind        { return KindRemoveLastUnit }
func (ClearBuffer) Kind() Kind           { return KindClearBuffer }
func (ShowUnfilledFields) Kind() Kind    { return KindShowUnfilledFields }
func (InsertFormatting) Kind() Kind      { return KindInsertFormatting }
func (ProcessWithExtraction) Kind() Kind { return KindProcessWithExtraction }
func (AppendText) Kind() Kind            { return KindAppendText }

func (LoadMacro) sealed()             {}
func (FillField) sealed()             {}
func (PasteBuffer) sealed()           {}
func (UndoPaste) sealed()             {}
func (Undo) sealed()                  {}
func (Redo) sealed()                  {}
func (RemoveLastUnit) sealed()        {}
func (ClearBuffer) sealed()           {}
func (ShowUnfilledFields) sealed()    {}
func (InsertFormatting) sealed()      {}
func (ProcessWithExtraction) sealed() {}
func (AppendText) sealed()            {}

// Mark is a spoken formatting token.
type Mark string

const (
	MarkPeriod         Mark = "."
	MarkComma          Mark = ","
	MarkQuestion       Mark = "?"
	MarkColon          Mark = ":"
	MarkLineBreak      Mark = "\n"
	MarkParagraphBreak Mark = "\n\n"
)

// IsBreak reports whether the mark is a line or paragraph break.
func (m Mark) IsBreak() bool {
	return m == MarkLineBreak || m == MarkParagraphBreak
}
