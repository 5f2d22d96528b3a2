// Package session applies parsed commands to a dictation document and owns
// the single-writer loop that serializes speech, extraction, and IPC.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rbright/dictum/internal/command"
	"github.com/rbright/dictum/internal/document"
	"github.com/rbright/dictum/internal/extract"
	"github.com/rbright/dictum/internal/template"
)

// DateLayout formats the auto-filled {date} placeholder.
const DateLayout = "January 2, 2006"

const datePlaceholder = "date"

// Templates is the read side of the template store.
type Templates interface {
	Get(key string) (template.Template, error)
	Keys() []string
}

// EngineConfig wires an Engine. Nil collaborators fall back to no-ops.
type EngineConfig struct {
	SessionID    string
	Templates    Templates
	Parser       *command.Parser
	Resolver     *extract.Resolver
	Paster       Paster
	Feedback     Feedback
	Logger       *slog.Logger
	HistoryLimit int
	AutoDate     bool
	Now          func() time.Time
}

// Engine is the synchronous core of one session. It is not safe for
// concurrent use; the Controller loop is its only caller at runtime.
type Engine struct {
	id        string
	doc       *document.Document
	templates Templates
	parser    *command.Parser
	resolver  *extract.Resolver
	paster    Paster
	feedback  Feedback
	logger    *slog.Logger
	autoDate  bool
	now       func() time.Time
}

// NewEngine builds an Engine with an empty document.
func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		id:        cfg.SessionID,
		doc:       document.New(cfg.HistoryLimit),
		templates: cfg.Templates,
		parser:    cfg.Parser,
		resolver:  cfg.Resolver,
		paster:    cfg.Paster,
		feedback:  cfg.Feedback,
		logger:    cfg.Logger,
		autoDate:  cfg.AutoDate,
		now:       cfg.Now,
	}
	if e.id == "" {
		e.id = uuid.NewString()
	}
	if e.templates == nil {
		set, _ := template.NewSet(nil)
		e.templates = template.NewStore(set)
	}
	if e.parser == nil {
		e.parser = command.NewParser(command.NewMatcher())
	}
	if e.resolver == nil {
		e.resolver = extract.NewResolver(nil, nil)
	}
	if e.paster == nil {
		e.paster = noopPaster{}
	}
	if e.feedback == nil {
		e.feedback = noopFeedback{}
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

type noopPaster struct{}

func (noopPaster) Paste(context.Context, string) error { return nil }
func (noopPaster) UndoPaste(context.Context) error     { return nil }

// ID returns the session identifier.
func (e *Engine) ID() string { return e.id }

// Document exposes the draft for read-only queries.
func (e *Engine) Document() *document.Document { return e.doc }

// Templates returns the template source.
func (e *Engine) Templates() Templates { return e.templates }

// Parse classifies a transcript against the active macro's placeholders.
func (e *Engine) Parse(transcript string) command.Command {
	var known []string
	if macro, ok := e.doc.Macro(); ok {
		known = macro.Placeholders
	}
	return e.parser.Parse(transcript, known)
}

// Submit parses one transcript and executes it.
func (e *Engine) Submit(ctx context.Context, transcript string) Outcome {
	if strings.TrimSpace(transcript) == "" {
		return e.finish(ctx, command.KindAppendText, time.Now(), nil, "", ErrEmptyTranscript)
	}
	return e.Execute(ctx, e.Parse(transcript))
}

// Execute applies one command and reports its outcome.
func (e *Engine) Execute(ctx context.Context, cmd command.Command) Outcome {
	start := time.Now()

	switch c := cmd.(type) {
	case command.LoadMacro:
		changed, msg, err := e.loadMacro(c.Key)
		return e.finish(ctx, c.Kind(), start, changed, msg, err)
	case command.FillField:
		err := e.doc.FillField(document.Field{Name: c.Field, Value: c.Value, Provenance: document.ProvenanceManual})
		return e.finish(ctx, c.Kind(), start, []string{c.Field}, fmt.Sprintf("filled %s", c.Field), err)
	case command.PasteBuffer:
		msg, err := e.paste(ctx)
		return e.finish(ctx, c.Kind(), start, nil, msg, err)
	case command.UndoPaste:
		err := e.undoPaste(ctx)
		return e.finish(ctx, c.Kind(), start, nil, "paste reverted", err)
	case command.Undo:
		return e.finish(ctx, c.Kind(), start, nil, "undone", e.doc.Undo())
	case command.Redo:
		return e.finish(ctx, c.Kind(), start, nil, "redone", e.doc.Redo())
	case command.RemoveLastUnit:
		if _, removed := e.doc.RemoveLastUnit(); !removed {
			return e.finish(ctx, c.Kind(), start, nil, "buffer already empty", nil)
		}
		return e.finish(ctx, c.Kind(), start, nil, "removed last phrase", nil)
	case command.ClearBuffer:
		e.doc.Clear()
		return e.finish(ctx, c.Kind(), start, nil, "buffer cleared", nil)
	case command.ShowUnfilledFields:
		return e.finish(ctx, c.Kind(), start, nil, e.describeUnfilled(), nil)
	case command.InsertFormatting:
		err := e.doc.Append(unitFor(c.Mark))
		return e.finish(ctx, c.Kind(), start, nil, "", err)
	case command.ProcessWithExtraction:
		job, err := e.PrepareExtraction()
		if err != nil || len(job.Request.Fields) == 0 {
			return e.finish(ctx, c.Kind(), start, nil, "every field is already filled", err)
		}
		result, resolveErr := e.resolver.Resolve(ctx, job.Request)
		return e.CompleteExtraction(ctx, job, result, resolveErr)
	case command.AppendText:
		err := e.doc.Append(document.Text(c.Text))
		return e.finish(ctx, c.Kind(), start, nil, "", err)
	default:
		return e.finish(ctx, cmd.Kind(), start, nil, "", fmt.Errorf("unsupported command %T", cmd))
	}
}

// Undo reverts the last buffer mutation.
func (e *Engine) Undo(ctx context.Context) Outcome {
	return e.Execute(ctx, command.Undo{})
}

// Redo re-applies the last undone mutation.
func (e *Engine) Redo(ctx context.Context) Outcome {
	return e.Execute(ctx, command.Redo{})
}

// Render returns the current draft text.
func (e *Engine) Render() string {
	return e.doc.Render()
}

// Fields returns the bound macro's fields in placeholder order.
func (e *Engine) Fields() []document.Field {
	return e.doc.Fields()
}

func (e *Engine) loadMacro(key string) ([]string, string, error) {
	tpl, err := e.templates.Get(key)
	if err != nil {
		return nil, "", fmt.Errorf("load macro: %w", err)
	}

	var prefill map[string]string
	if e.autoDate && tpl.HasPlaceholder(datePlaceholder) {
		prefill = map[string]string{datePlaceholder: e.now().Format(DateLayout)}
	}
	if err := e.doc.LoadMacro(tpl, prefill); err != nil {
		return nil, "", err
	}

	var changed []string
	for name := range prefill {
		changed = append(changed, name)
	}
	return changed, fmt.Sprintf("loaded macro %s (%d fields)", tpl.Key, len(tpl.Placeholders)), nil
}

func (e *Engine) paste(ctx context.Context) (string, error) {
	text := e.doc.Render()
	if strings.TrimSpace(text) == "" {
		return "", ErrNothingToPaste
	}
	if err := e.paster.Paste(ctx, text); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPasteFailed, err)
	}
	e.doc.MarkPasted()
	return fmt.Sprintf("pasted %d characters", len(text)), nil
}

func (e *Engine) undoPaste(ctx context.Context) error {
	if !e.doc.TakePendingPaste() {
		return ErrNoPendingPaste
	}
	if err := e.paster.UndoPaste(ctx); err != nil {
		e.doc.MarkPasted()
		return fmt.Errorf("%w: %w", ErrPasteFailed, err)
	}
	return nil
}

func (e *Engine) describeUnfilled() string {
	if _, ok := e.doc.Macro(); !ok {
		return "no macro loaded"
	}
	unfilled := e.doc.UnfilledFields()
	if len(unfilled) == 0 {
		return "all fields filled"
	}
	return "unfilled: " + strings.Join(unfilled, ", ")
}

func unitFor(mark command.Mark) document.Unit {
	switch mark {
	case command.MarkLineBreak:
		return document.LineBreak()
	case command.MarkParagraphBreak:
		return document.ParagraphBreak()
	default:
		return document.Punctuation(string(mark))
	}
}

// ExtractionJob is a snapshot of what a pending extraction was asked for.
type ExtractionJob struct {
	Request  extract.Request
	Revision uint64
}

// PrepareExtraction captures the buffer text and unfilled fields of the
// active macro. An empty Fields list means nothing needs filling.
func (e *Engine) PrepareExtraction() (ExtractionJob, error) {
	macro, ok := e.doc.Macro()
	if !ok {
		return ExtractionJob{}, fmt.Errorf("process note: %w", document.ErrNoActiveMacro)
	}
	return ExtractionJob{
		Request: extract.Request{
			Text:     e.doc.BufferText(),
			Fields:   e.doc.UnfilledFields(),
			MacroKey: macro.Key,
		},
		Revision: e.doc.Revision(),
	}, nil
}

// CompleteExtraction applies resolved fields if the document has not changed
// since the job was prepared. Fills and buffer consumption share one history
// entry.
func (e *Engine) CompleteExtraction(ctx context.Context, job ExtractionJob, result extract.Result, resolveErr error) Outcome {
	start := time.Now()
	kind := command.KindProcessWithExtraction

	if e.doc.Revision() != job.Revision {
		return e.finish(ctx, kind, start, nil, "", fmt.Errorf("%w: document changed during extraction", ErrStaleResult))
	}
	if resolveErr != nil {
		return e.finish(ctx, kind, start, nil, "", fmt.Errorf("%w; fill the fields manually", resolveErr))
	}

	batch := make([]document.Field, 0, len(result.Fields))
	changed := make([]string, 0, len(result.Fields))
	low := 0
	for _, name := range job.Request.Fields {
		res, ok := result.Fields[name]
		if !ok {
			continue
		}
		batch = append(batch, document.Field{
			Name:          name,
			Value:         res.Value,
			Confidence:    res.Confidence,
			HasConfidence: true,
			Provenance:    res.Provenance,
		})
		changed = append(changed, name)
		if extract.TierFor(res.Confidence) == extract.TierLow {
			low++
		}
	}
	if err := e.doc.ApplyExtraction(batch); err != nil {
		return e.finish(ctx, kind, start, nil, "", err)
	}

	msg := fmt.Sprintf("filled %d of %d fields", len(changed), len(job.Request.Fields))
	if low > 0 {
		msg += fmt.Sprintf(" (%d low confidence)", low)
	}
	if result.PrimaryErr != nil {
		msg += "; primary extractor unavailable, used fallback"
	}
	return e.finish(ctx, kind, start, changed, msg, nil)
}

// ReloadTemplates re-reads the template source when it supports reload. The
// bound macro keeps its loaded copy.
func (e *Engine) ReloadTemplates(ctx context.Context) (int, error) {
	reloader, ok := e.templates.(interface{ Reload(string) error })
	if !ok {
		return 0, errors.New("template source does not support reload")
	}
	if err := reloader.Reload(""); err != nil {
		e.logger.Error("template reload failed", "session_id", e.id, "error", err.Error())
		return 0, err
	}
	count := len(e.templates.Keys())
	e.logger.Info("templates reloaded", "session_id", e.id, "count", count)
	return count, nil
}

// Reject reports a command that never reached the document.
func (e *Engine) Reject(ctx context.Context, kind command.Kind, err error) Outcome {
	return e.finish(ctx, kind, time.Now(), nil, "", err)
}

func (e *Engine) finish(ctx context.Context, kind command.Kind, start time.Time, changed []string, msg string, err error) Outcome {
	out := Outcome{
		ID:        uuid.NewString(),
		SessionID: e.id,
		Command:   kind,
		OK:        err == nil,
		Message:   msg,
		Revision:  e.doc.Revision(),
		Duration:  time.Since(start),
	}
	if err != nil {
		out.Code = Code(err)
		out.Message = err.Error()
		out.Err = err
	} else {
		out.Changed = changed
	}

	attrs := []any{
		"session_id", out.SessionID,
		"outcome_id", out.ID,
		"command", string(out.Command),
		"ok", out.OK,
		"code", out.Code,
		"changed_fields", out.Changed,
		"revision", out.Revision,
		"duration_ms", out.Duration.Milliseconds(),
	}
	if err != nil {
		e.logger.Warn("command failed", append(attrs, "error", err.Error())...)
	} else {
		e.logger.Info("command applied", attrs...)
	}

	e.feedback.Report(ctx, out)
	return out
}
