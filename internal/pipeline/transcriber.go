// Package pipeline wires audio capture to speech-to-text for the toggle flow.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/dictum/internal/audio"
	"github.com/rbright/dictum/internal/config"
	"github.com/rbright/dictum/internal/inference"
	"github.com/rbright/dictum/internal/session"
	"github.com/rbright/dictum/internal/transcript"
)

var errAlreadyRecording = errors.New("transcriber already started")

type captureClient interface {
	Stop() error
	RawPCM() []byte
	BytesCaptured() int64
	Duration() time.Duration
	Truncated() bool
}

// SpeechToText turns a WAV utterance into text.
type SpeechToText interface {
	Transcribe(ctx context.Context, wav []byte) (inference.Transcription, error)
}

// recording is one in-flight utterance.
type recording struct {
	selection audio.Selection
	capture   captureClient
}

// Transcriber records one utterance at a time and hands it to SpeechToText.
type Transcriber struct {
	cfg    config.Config
	speech SpeechToText
	logger *slog.Logger

	mu      sync.Mutex
	current *recording

	selectDevice func(context.Context, string, string) (audio.Selection, error)
	startCapture func(context.Context, audio.Device) (captureClient, error)
}

func NewTranscriber(cfg config.Config, speech SpeechToText, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		cfg:          cfg,
		speech:       speech,
		logger:       logger,
		selectDevice: audio.SelectDevice,
		startCapture: func(ctx context.Context, device audio.Device) (captureClient, error) {
			return audio.StartCapture(ctx, device, audio.DefaultMaxDuration)
		},
	}
}

// Start picks the input source and begins buffering audio.
func (t *Transcriber) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.current != nil:
		return errAlreadyRecording
	case t.speech == nil:
		return session.ErrPipelineUnavailable
	}

	selection, err := t.selectDevice(ctx, t.cfg.Audio.Input, t.cfg.Audio.Fallback)
	if err != nil {
		return err
	}
	if selection.Warning != "" {
		t.warn(selection.Warning)
	}

	capture, err := t.startCapture(ctx, selection.Device)
	if err != nil {
		return err
	}
	t.current = &recording{selection: selection, capture: capture}
	if t.logger != nil {
		t.logger.Debug("capture started", "device", selection.Device.Label(), "fallback", selection.Fallback)
	}
	return nil
}

// take detaches the in-flight recording, if any.
func (t *Transcriber) take() *recording {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.current
	t.current = nil
	return rec
}

// StopAndTranscribe ends capture and returns the cleaned transcript. The
// result carries capture metrics even when transcription fails.
func (t *Transcriber) StopAndTranscribe(ctx context.Context) (session.StopResult, error) {
	rec := t.take()
	if rec == nil {
		return session.StopResult{}, session.ErrPipelineUnavailable
	}

	_ = rec.capture.Stop()
	pcm := rec.capture.RawPCM()
	t.writeDebugAudio(pcm)
	if rec.capture.Truncated() {
		t.warn("utterance reached the capture limit; trailing audio dropped")
	}

	result := session.StopResult{
		AudioDevice:   rec.selection.Device.Label(),
		BytesCaptured: rec.capture.BytesCaptured(),
		AudioDuration: rec.capture.Duration(),
	}
	if len(pcm) == 0 {
		return result, session.ErrEmptyTranscript
	}

	speechCtx, cancel := context.WithTimeout(ctx, time.Duration(t.cfg.Speech.TimeoutMS)*time.Millisecond)
	defer cancel()
	out, err := t.speech.Transcribe(speechCtx, utteranceWAV(pcm))
	result.SpeechLatency = out.Latency
	if err != nil {
		return result, fmt.Errorf("transcribe utterance: %w", err)
	}
	if out.AudioDuration > 0 {
		result.AudioDuration = out.AudioDuration
	}
	result.Language = out.Language
	result.Transcript = t.assemble(out)
	if result.Transcript == "" {
		return result, session.ErrEmptyTranscript
	}
	return result, nil
}

// assemble prefers timed segments and falls back to the flat text.
func (t *Transcriber) assemble(out inference.Transcription) string {
	opts := transcript.Options{CapitalizeSentences: t.cfg.Speech.CapitalizeSentences}
	if len(out.Segments) == 0 {
		return transcript.Join([]string{out.Text}, opts)
	}
	return transcript.Assemble(out.Segments, opts)
}

// Cancel stops capture immediately and discards the audio.
func (t *Transcriber) Cancel(context.Context) error {
	if rec := t.take(); rec != nil {
		_ = rec.capture.Stop()
		t.writeDebugAudio(rec.capture.RawPCM())
	}
	return nil
}

func (t *Transcriber) warn(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Warn(msg, args...)
	}
}
