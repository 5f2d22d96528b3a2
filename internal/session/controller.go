package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rbright/dictum/internal/command"
	"github.com/rbright/dictum/internal/extract"
	"github.com/rbright/dictum/internal/fsm"
	"github.com/rbright/dictum/internal/ipc"
)

type job func(context.Context)

// pending tracks one off-loop operation. A result is applied only when its
// ticket still matches.
type pending struct {
	ticket uint64
	cancel context.CancelFunc
	reply  chan<- ipc.Response
}

// Controller is the session owner. Run is the only goroutine that touches
// the engine; IPC requests and off-loop results re-enter as jobs.
type Controller struct {
	logger      *slog.Logger
	engine      *Engine
	transcriber Transcriber
	indicator   Indicator

	jobs chan job
	done chan struct{}
	wg   sync.WaitGroup

	// loop-owned
	capture    fsm.State
	ticket     uint64
	speech     *pending
	extraction *pending
}

// NewController constructs a controller with safe default fallbacks.
func NewController(logger *slog.Logger, engine *Engine, transcriber Transcriber, indicator Indicator) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	if engine == nil {
		engine = NewEngine(EngineConfig{Logger: logger})
	}
	if transcriber == nil {
		transcriber = noCapture{}
	}
	if indicator == nil {
		indicator = silentIndicator{}
	}
	return &Controller{
		logger:      logger,
		engine:      engine,
		transcriber: transcriber,
		indicator:   indicator,
		jobs:        make(chan job, 16),
		done:        make(chan struct{}),
		capture:     fsm.StateIdle,
	}
}

// Run processes jobs in arrival order until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	defer func() {
		c.abortSpeech("shutdown")
		c.abortExtraction()
		close(c.done)
		c.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-c.jobs:
			j(ctx)
		}
	}
}

// Handle serves one IPC request by running it on the loop.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	reply := make(chan ipc.Response, 1)
	if !c.enqueue(ctx, func(loopCtx context.Context) { c.dispatch(loopCtx, req, reply) }) {
		return ipc.Response{OK: false, Code: Code(ErrShuttingDown), Error: ErrShuttingDown.Error()}
	}

	select {
	case resp := <-reply:
		return resp
	case <-ctx.Done():
		return ipc.Response{OK: false, Code: Code(ctx.Err()), Error: ctx.Err().Error()}
	case <-c.done:
		select {
		case resp := <-reply:
			return resp
		default:
			return ipc.Response{OK: false, Code: Code(ErrShuttingDown), Error: ErrShuttingDown.Error()}
		}
	}
}

func (c *Controller) enqueue(ctx context.Context, j job) bool {
	select {
	case c.jobs <- j:
		return true
	case <-ctx.Done():
		return false
	case <-c.done:
		return false
	}
}

func (c *Controller) dispatch(ctx context.Context, req ipc.Request, reply chan<- ipc.Response) {
	switch req.Command {
	case "say":
		c.say(ctx, req.Text, reply)
	case "undo":
		reply <- c.outcomeResponse(c.engine.Undo(ctx))
	case "redo":
		reply <- c.outcomeResponse(c.engine.Redo(ctx))
	case "paste":
		reply <- c.outcomeResponse(c.engine.Execute(ctx, command.PasteBuffer{}))
	case "undo-paste":
		reply <- c.outcomeResponse(c.engine.Execute(ctx, command.UndoPaste{}))
	case "render":
		reply <- c.statusResponse("render")
	case "fields":
		resp := c.statusResponse("fields")
		resp.Fields = c.fieldViews()
		reply <- resp
	case "status":
		reply <- c.statusResponse("status")
	case "templates":
		reply <- c.templates(req.Text)
	case "reload":
		count, err := c.engine.ReloadTemplates(ctx)
		if err != nil {
			reply <- ipc.Response{OK: false, State: string(c.capture), Code: Code(err), Error: err.Error()}
			return
		}
		reply <- ipc.Response{OK: true, State: string(c.capture), Message: fmt.Sprintf("reloaded %d templates", count)}
	case "toggle":
		reply <- c.toggle(ctx)
	case "stop":
		reply <- c.stop(ctx)
	case "cancel":
		reply <- c.cancel(ctx)
	default:
		reply <- ipc.Response{OK: false, State: string(c.capture), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// say executes one transcript. Extraction is resolved off-loop and the
// reply is sent when its result is applied or dropped.
func (c *Controller) say(ctx context.Context, text string, reply chan<- ipc.Response) {
	if strings.TrimSpace(text) == "" {
		reply <- c.outcomeResponse(c.engine.Submit(ctx, text))
		return
	}

	cmd := c.engine.Parse(text)
	if _, ok := cmd.(command.ProcessWithExtraction); !ok {
		reply <- c.outcomeResponse(c.engine.Execute(ctx, cmd))
		return
	}

	jobSpec, err := c.engine.PrepareExtraction()
	if err != nil || len(jobSpec.Request.Fields) == 0 {
		reply <- c.outcomeResponse(c.engine.Execute(ctx, cmd))
		return
	}
	c.startExtraction(ctx, jobSpec, reply)
}

func (c *Controller) startExtraction(ctx context.Context, work ExtractionJob, reply chan<- ipc.Response) {
	if c.extraction != nil {
		c.logger.Info("superseding pending extraction", "ticket", c.extraction.ticket)
		c.abortExtraction()
	}

	c.ticket++
	extractCtx, cancel := context.WithCancel(ctx)
	p := &pending{ticket: c.ticket, cancel: cancel, reply: reply}
	c.extraction = p

	resolver := c.engine.resolver
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		result, err := resolver.Resolve(extractCtx, work.Request)
		c.enqueue(context.Background(), func(loopCtx context.Context) {
			c.finishExtraction(loopCtx, p, work, result, err)
		})
	}()
}

func (c *Controller) finishExtraction(ctx context.Context, p *pending, work ExtractionJob, result extract.Result, err error) {
	if c.extraction != p {
		c.logger.Info("dropping superseded extraction result", "ticket", p.ticket)
		return
	}
	c.extraction = nil
	p.cancel()
	p.reply <- c.outcomeResponse(c.engine.CompleteExtraction(ctx, work, result, err))
}

// abortExtraction drops the pending extraction and answers its caller.
func (c *Controller) abortExtraction() {
	p := c.extraction
	if p == nil {
		return
	}
	c.extraction = nil
	p.cancel()
	out := c.engine.Reject(context.Background(), command.KindProcessWithExtraction, fmt.Errorf("%w: extraction cancelled", ErrStaleResult))
	p.reply <- c.outcomeResponse(out)
}

func (c *Controller) toggle(ctx context.Context) ipc.Response {
	switch c.capture {
	case fsm.StateIdle:
		return c.startCapture(ctx)
	case fsm.StateRecording:
		return c.stop(ctx)
	default:
		return ipc.Response{OK: false, State: string(c.capture), Error: fmt.Sprintf("cannot toggle from state %s", c.capture)}
	}
}

func (c *Controller) startCapture(ctx context.Context) ipc.Response {
	if err := c.transition(fsm.EventStart); err != nil {
		return ipc.Response{OK: false, State: string(c.capture), Error: err.Error()}
	}
	if err := c.transcriber.Start(ctx); err != nil {
		c.indicator.ShowError(ctx, "Unable to start recording")
		c.toErrorAndReset()
		return ipc.Response{OK: false, State: string(c.capture), Code: Code(err), Error: err.Error()}
	}
	c.indicator.ShowRecording(ctx)
	return ipc.Response{OK: true, State: string(c.capture), Message: "recording"}
}

func (c *Controller) stop(ctx context.Context) ipc.Response {
	if c.capture == fsm.StateTranscribing {
		return ipc.Response{OK: false, State: string(c.capture), Error: "already transcribing"}
	}
	if err := c.transition(fsm.EventStop); err != nil {
		return ipc.Response{OK: false, State: string(c.capture), Error: err.Error()}
	}
	c.indicator.ShowTranscribing(ctx)

	c.ticket++
	speechCtx, cancel := context.WithCancel(ctx)
	p := &pending{ticket: c.ticket, cancel: cancel}
	c.speech = p

	transcriber := c.transcriber
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		result, err := transcriber.StopAndTranscribe(speechCtx)
		c.enqueue(context.Background(), func(loopCtx context.Context) {
			c.finishSpeech(loopCtx, p, result, err)
		})
	}()

	return ipc.Response{OK: true, State: string(c.capture), Message: "transcribing"}
}

func (c *Controller) finishSpeech(ctx context.Context, p *pending, result StopResult, err error) {
	if c.speech != p {
		c.logger.Info("dropping cancelled transcription", "ticket", p.ticket, "bytes_captured", result.BytesCaptured)
		return
	}
	c.speech = nil
	p.cancel()
	c.indicator.CueStop(ctx)

	c.logger.Info("transcription finished",
		"ticket", p.ticket,
		"audio_device", result.AudioDevice,
		"bytes_captured", result.BytesCaptured,
		"language", result.Language,
		"audio_ms", result.AudioDuration.Milliseconds(),
		"speech_latency_ms", result.SpeechLatency.Milliseconds(),
	)

	if err == nil && strings.TrimSpace(result.Transcript) == "" {
		err = ErrEmptyTranscript
	}
	// The transcribing surface goes away first; outcome feedback may raise
	// its own notification.
	c.hide()
	if err != nil {
		c.toErrorAndReset()
		c.engine.Reject(ctx, command.KindAppendText, err)
		return
	}
	_ = c.transition(fsm.EventTranscribed)

	cmd := c.engine.Parse(result.Transcript)
	if _, ok := cmd.(command.ProcessWithExtraction); ok {
		work, prepErr := c.engine.PrepareExtraction()
		if prepErr == nil && len(work.Request.Fields) > 0 {
			c.startExtraction(ctx, work, make(chan ipc.Response, 1))
			c.indicator.CueComplete(ctx)
			return
		}
	}

	out := c.engine.Execute(ctx, cmd)
	if out.OK {
		c.indicator.CueComplete(ctx)
	}
}

func (c *Controller) cancel(ctx context.Context) ipc.Response {
	var cancelled []string
	if c.capture == fsm.StateRecording || c.capture == fsm.StateTranscribing {
		c.abortSpeech("cancel")
		c.indicator.CueCancel(ctx)
		c.hide()
		cancelled = append(cancelled, "capture")
	}
	if c.extraction != nil {
		c.abortExtraction()
		cancelled = append(cancelled, "extraction")
	}
	if len(cancelled) == 0 {
		return ipc.Response{OK: false, State: string(c.capture), Error: fmt.Sprintf("cannot cancel from state %s", c.capture)}
	}
	return ipc.Response{OK: true, State: string(c.capture), Message: "cancelled " + strings.Join(cancelled, " and ")}
}

// abortSpeech stops capture or invalidates an in-flight transcription.
func (c *Controller) abortSpeech(reason string) {
	switch c.capture {
	case fsm.StateRecording:
		if err := c.transcriber.Cancel(context.Background()); err != nil {
			c.logger.Warn("cancel capture failed", "reason", reason, "error", err.Error())
		}
	case fsm.StateTranscribing:
		if c.speech != nil {
			c.speech.cancel()
			c.speech = nil
		}
	default:
		return
	}
	_ = c.transition(fsm.EventCancel)
}

func (c *Controller) hide() {
	hideCtx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()
	c.indicator.Hide(hideCtx)
}

func (c *Controller) transition(event fsm.Event) error {
	next, err := fsm.Transition(c.capture, event)
	if err != nil {
		return err
	}
	c.capture = next
	return nil
}

// toErrorAndReset transitions to error and back to idle best-effort.
func (c *Controller) toErrorAndReset() {
	_ = c.transition(fsm.EventFail)
	_ = c.transition(fsm.EventReset)
}

func (c *Controller) outcomeResponse(out Outcome) ipc.Response {
	resp := c.statusResponse(string(out.Command))
	resp.OK = out.OK
	resp.Code = out.Code
	resp.Changed = out.Changed
	resp.OutcomeID = out.ID
	if out.OK {
		resp.Message = out.Message
	} else {
		resp.Error = out.Message
	}
	return resp
}

// templates lists macro keys, or describes one macro when key is set.
func (c *Controller) templates(key string) ipc.Response {
	if strings.TrimSpace(key) == "" {
		resp := c.statusResponse("templates")
		resp.Templates = c.engine.Templates().Keys()
		return resp
	}
	tpl, err := c.engine.Templates().Get(key)
	if err != nil {
		return ipc.Response{OK: false, State: string(c.capture), Code: Code(err), Error: err.Error()}
	}
	resp := c.statusResponse(fmt.Sprintf("%s: %d fields", tpl.Key, len(tpl.Placeholders)))
	resp.Template = &ipc.TemplateInfo{
		Key:    tpl.Key,
		Fields: slices.Clone(tpl.Placeholders),
		Length: utf8.RuneCountInString(tpl.Text),
	}
	return resp
}

func (c *Controller) statusResponse(message string) ipc.Response {
	doc := c.engine.Document()
	resp := ipc.Response{
		OK:           true,
		State:        string(c.capture),
		Message:      message,
		SessionID:    c.engine.ID(),
		Document:     doc.Render(),
		Unfilled:     doc.UnfilledFields(),
		Revision:     doc.Revision(),
		PendingPaste: doc.PendingPaste(),
		Extracting:   c.extraction != nil,
	}
	if macro, ok := doc.Macro(); ok {
		resp.Macro = macro.Key
	}
	return resp
}

func (c *Controller) fieldViews() []ipc.Field {
	fields := c.engine.Fields()
	out := make([]ipc.Field, 0, len(fields))
	for _, f := range fields {
		view := ipc.Field{
			Name:       f.Name,
			Value:      f.Value,
			Provenance: string(f.Provenance),
		}
		if f.HasConfidence {
			confidence := f.Confidence
			view.Confidence = &confidence
			view.Tier = string(extract.TierFor(f.Confidence))
		}
		out = append(out, view)
	}
	return out
}
