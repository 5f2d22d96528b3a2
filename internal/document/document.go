// Package document holds the mutable dictation draft and its bounded
// undo/redo history.
package document

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/rbright/dictum/internal/fsm"
	"github.com/rbright/dictum/internal/template"
)

const (
	// DefaultHistoryLimit is also the maximum retained undo depth.
	DefaultHistoryLimit = 50
)

var (
	ErrNoActiveMacro    = errors.New("no active macro")
	ErrUnknownField     = errors.New("unknown field")
	ErrInvalidUnit      = errors.New("invalid phrase unit")
	ErrHistoryUnderflow = errors.New("history underflow")
	ErrNothingToUndo    = fmt.Errorf("%w: nothing to undo", ErrHistoryUnderflow)
	ErrNothingToRedo    = fmt.Errorf("%w: nothing to redo", ErrHistoryUnderflow)
)

// Provenance records where a field value came from.
type Provenance string

const (
	ProvenanceManual   Provenance = "manual"
	ProvenanceAI       Provenance = "ai-extracted"
	ProvenanceFallback Provenance = "fallback-extracted"
)

// Field is the fill state of one placeholder. Confidence is meaningful only
// when HasConfidence is set; manual fills leave it unset.
type Field struct {
	Name          string
	Value         string
	Confidence    float64
	HasConfidence bool
	Provenance    Provenance
}

// Filled reports whether the field has a value.
func (f Field) Filled() bool {
	return f.Value != ""
}

type state struct {
	binding fsm.Binding
	macro   template.Template
	units   []Unit
	fields  map[string]Field
}

func (s state) clone() state {
	out := s
	out.units = slices.Clone(s.units)
	if s.fields != nil {
		out.fields = make(map[string]Field, len(s.fields))
		for k, v := range s.fields {
			out.fields[k] = v
		}
	}
	return out
}

// Document is a single-writer dictation draft. It is not safe for
// concurrent use.
type Document struct {
	cur      state
	undo     []state
	redo     []state
	limit    int
	revision uint64
	pasted   bool
}

// New returns an empty document with no macro. limit bounds the undo
// history; values outside (0, DefaultHistoryLimit] use DefaultHistoryLimit.
func New(limit int) *Document {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	return &Document{cur: state{binding: fsm.BindingNone}, limit: limit}
}

// checkpoint records the pre-mutation state. Callers validate first so a
// failed command never reaches here.
func (d *Document) checkpoint() {
	d.undo = append(d.undo, d.cur.clone())
	if len(d.undo) > d.limit {
		d.undo = slices.Delete(d.undo, 0, len(d.undo)-d.limit)
	}
	d.redo = nil
	d.revision++
}

// LoadMacro binds tpl, resets every field and clears the buffer. prefill
// supplies manual values for placeholders known up front; names outside
// the template are ignored.
func (d *Document) LoadMacro(tpl template.Template, prefill map[string]string) error {
	next, err := fsm.Bind(d.cur.binding, fsm.BindingLoad)
	if err != nil {
		return fmt.Errorf("load macro %q: %w", tpl.Key, err)
	}

	d.checkpoint()
	d.cur = state{
		binding: next,
		macro:   tpl,
		fields:  make(map[string]Field, len(tpl.Placeholders)),
	}
	for _, name := range tpl.Placeholders {
		field := Field{Name: name, Provenance: ProvenanceManual}
		if value, ok := prefill[name]; ok {
			field.Value = value
		}
		d.cur.fields[name] = field
	}
	return nil
}

// FillField overwrites one field. The previous value is never merged.
func (d *Document) FillField(f Field) error {
	return d.FillFields([]Field{f})
}

// FillFields applies a batch of fills as one history entry. Either every
// fill applies or none does.
func (d *Document) FillFields(batch []Field) error {
	return d.fill(batch, false)
}

// ApplyExtraction fills batch and consumes the dictated buffer as one
// history entry.
func (d *Document) ApplyExtraction(batch []Field) error {
	return d.fill(batch, true)
}

func (d *Document) fill(batch []Field, consumeBuffer bool) error {
	for _, f := range batch {
		if err := d.validateFill(f); err != nil {
			return err
		}
	}
	d.checkpoint()
	for _, f := range batch {
		d.cur.fields[f.Name] = normalizeField(f)
	}
	if consumeBuffer {
		d.cur.units = nil
	}
	return nil
}

func (d *Document) validateFill(f Field) error {
	if _, err := fsm.Bind(d.cur.binding, fsm.BindingFill); err != nil {
		return fmt.Errorf("fill %q: %w", f.Name, ErrNoActiveMacro)
	}
	if _, ok := d.cur.fields[f.Name]; !ok {
		return fmt.Errorf("fill %q: %w (macro %q has %v)", f.Name, ErrUnknownField, d.cur.macro.Key, d.cur.macro.Placeholders)
	}
	return nil
}

func normalizeField(f Field) Field {
	if f.Provenance == "" {
		f.Provenance = ProvenanceManual
	}
	switch {
	case !f.HasConfidence, math.IsNaN(f.Confidence):
		f.Confidence = 0
	default:
		f.Confidence = min(max(f.Confidence, 0), 1)
	}
	return f
}

// Append adds one phrase unit to the buffer.
func (d *Document) Append(u Unit) error {
	if !u.valid() {
		return fmt.Errorf("append %s: %w", u.Kind, ErrInvalidUnit)
	}
	next, err := fsm.Bind(d.cur.binding, fsm.BindingAppend)
	if err != nil {
		return fmt.Errorf("append %s: %w", u.Kind, err)
	}
	d.checkpoint()
	d.cur.binding = next
	d.cur.units = append(d.cur.units, u)
	return nil
}

// RemoveLastUnit drops the most recent phrase unit. On an empty buffer it
// does nothing and records no history.
func (d *Document) RemoveLastUnit() (Unit, bool) {
	if len(d.cur.units) == 0 {
		return Unit{}, false
	}
	d.checkpoint()
	last := d.cur.units[len(d.cur.units)-1]
	d.cur.units = d.cur.units[:len(d.cur.units)-1]
	return last, true
}

// Clear returns the document to its initial empty, unbound state. The
// pending-paste flag is not part of the draft and survives.
func (d *Document) Clear() {
	next, _ := fsm.Bind(d.cur.binding, fsm.BindingClear)
	d.checkpoint()
	d.cur = state{binding: next}
}

// Undo restores the state before the most recent mutation.
func (d *Document) Undo() error {
	if len(d.undo) == 0 {
		return ErrNothingToUndo
	}
	prev := d.undo[len(d.undo)-1]
	d.undo = d.undo[:len(d.undo)-1]
	d.redo = append(d.redo, d.cur)
	d.cur = prev
	d.revision++
	return nil
}

// Redo re-applies the most recently undone mutation.
func (d *Document) Redo() error {
	if len(d.redo) == 0 {
		return ErrNothingToRedo
	}
	next := d.redo[len(d.redo)-1]
	d.redo = d.redo[:len(d.redo)-1]
	d.undo = append(d.undo, d.cur)
	d.cur = next
	d.revision++
	return nil
}

// Macro returns the bound template.
func (d *Document) Macro() (template.Template, bool) {
	if d.cur.binding != fsm.BindingLoaded {
		return template.Template{}, false
	}
	return d.cur.macro, true
}

// Binding returns the macro binding state.
func (d *Document) Binding() fsm.Binding {
	return d.cur.binding
}

// Field returns the fill state of one placeholder.
func (d *Document) Field(name string) (Field, bool) {
	f, ok := d.cur.fields[name]
	return f, ok
}

// Fields returns every field of the bound macro in placeholder order.
func (d *Document) Fields() []Field {
	macro, ok := d.Macro()
	if !ok {
		return nil
	}
	out := make([]Field, 0, len(macro.Placeholders))
	for _, name := range macro.Placeholders {
		out = append(out, d.cur.fields[name])
	}
	return out
}

// UnfilledFields lists empty fields in placeholder order.
func (d *Document) UnfilledFields() []string {
	var out []string
	for _, f := range d.Fields() {
		if !f.Filled() {
			out = append(out, f.Name)
		}
	}
	return out
}

// Complete reports whether a macro is bound and every field is filled.
func (d *Document) Complete() bool {
	_, ok := d.Macro()
	return ok && len(d.UnfilledFields()) == 0
}

// Units returns a copy of the buffer.
func (d *Document) Units() []Unit {
	return slices.Clone(d.cur.units)
}

// BufferText renders only the dictated buffer.
func (d *Document) BufferText() string {
	return renderUnits(d.cur.units)
}

// Render expands the bound template and appends the rendered buffer,
// separated by a blank line when both are present. Unfilled placeholders
// stay as literal {name} markers.
func (d *Document) Render() string {
	var head string
	if macro, ok := d.Macro(); ok {
		head = macro.Expand(func(name string) (string, bool) {
			f, ok := d.cur.fields[name]
			if !ok || !f.Filled() {
				return "", false
			}
			return f.Value, true
		})
	}
	body := renderUnits(d.cur.units)

	switch {
	case head == "":
		return body
	case body == "":
		return head
	default:
		return head + "\n\n" + body
	}
}

// Revision changes on every mutation, undo, and redo.
func (d *Document) Revision() uint64 {
	return d.revision
}

// UndoDepth and RedoDepth report the history stack sizes.
func (d *Document) UndoDepth() int { return len(d.undo) }
func (d *Document) RedoDepth() int { return len(d.redo) }

// MarkPasted records that the rendered draft was handed to the paste target.
func (d *Document) MarkPasted() {
	d.pasted = true
}

// PendingPaste reports whether a paste can still be reversed.
func (d *Document) PendingPaste() bool {
	return d.pasted
}

// TakePendingPaste clears the pending-paste flag and reports whether it was set.
func (d *Document) TakePendingPaste() bool {
	was := d.pasted
	d.pasted = false
	return was
}
