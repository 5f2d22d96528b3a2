package session

import (
	"context"
	"time"
)

// StopResult is one finished utterance: the assembled transcript plus capture
// metadata for the owner's log.
type StopResult struct {
	Transcript    string
	Language      string
	AudioDevice   string
	BytesCaptured int64
	AudioDuration time.Duration
	SpeechLatency time.Duration
}

// Transcriber records an utterance and turns it into text. StopAndTranscribe
// runs off the controller loop; Start and Cancel run on it.
type Transcriber interface {
	Start(context.Context) error
	StopAndTranscribe(context.Context) (StopResult, error)
	Cancel(context.Context) error
}

// Paster delivers a rendered draft to the focused application.
type Paster interface {
	Paste(ctx context.Context, text string) error
	UndoPaste(ctx context.Context) error
}

// Indicator surfaces the capture state. Outcome feedback goes through
// Feedback instead.
type Indicator interface {
	ShowRecording(context.Context)
	ShowTranscribing(context.Context)
	ShowError(context.Context, string)
	CueStop(context.Context)
	CueComplete(context.Context)
	CueCancel(context.Context)
	Hide(context.Context)
}

// noCapture stands in when the owner runs without audio; every toggle
// reports ErrPipelineUnavailable.
type noCapture struct{}

func (noCapture) Start(context.Context) error { return ErrPipelineUnavailable }

func (noCapture) StopAndTranscribe(context.Context) (StopResult, error) {
	return StopResult{}, ErrPipelineUnavailable
}

func (noCapture) Cancel(context.Context) error { return nil }

type silentIndicator struct{}

func (silentIndicator) ShowRecording(context.Context)     {}
func (silentIndicator) ShowTranscribing(context.Context)  {}
func (silentIndicator) ShowError(context.Context, string) {}
func (silentIndicator) CueStop(context.Context)           {}
func (silentIndicator) CueComplete(context.Context)       {}
func (silentIndicator) CueCancel(context.Context)         {}
func (silentIndicator) Hide(context.Context)              {}
