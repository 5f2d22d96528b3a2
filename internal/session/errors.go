package session

import (
	"context"
	"errors"

	"github.com/rbright/dictum/internal/document"
	"github.com/rbright/dictum/internal/extract"
	"github.com/rbright/dictum/internal/template"
)

var (
	// ErrNothingToPaste indicates paste was requested for an empty draft.
	ErrNothingToPaste = errors.New("nothing to paste")
	// ErrNoPendingPaste indicates undo-paste without a prior paste.
	ErrNoPendingPaste = errors.New("no pending paste")
	// ErrPasteFailed wraps paste collaborator failures.
	ErrPasteFailed = errors.New("paste failed")
	// ErrStaleResult indicates an async result arrived after the document moved on.
	ErrStaleResult = errors.New("stale result discarded")
	// ErrPipelineUnavailable indicates runtime transcriber wiring is missing.
	ErrPipelineUnavailable = errors.New("audio capture and speech pipeline not configured")
	// ErrEmptyTranscript indicates no usable speech was recognized.
	ErrEmptyTranscript = errors.New("no speech recognized; check microphone input or mute state")
	// ErrShuttingDown indicates the owner loop has exited.
	ErrShuttingDown = errors.New("session is shutting down")
)

// Code maps an error to the stable outcome code reported to feedback sinks.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, template.ErrNotFound):
		return "macro_not_found"
	case errors.Is(err, document.ErrUnknownField):
		return "unknown_field"
	case errors.Is(err, document.ErrNoActiveMacro):
		return "no_active_macro"
	case errors.Is(err, document.ErrInvalidUnit):
		return "invalid_unit"
	case errors.Is(err, document.ErrHistoryUnderflow):
		return "history_underflow"
	case errors.Is(err, extract.ErrExtractionFailure):
		return "extraction_failure"
	case errors.Is(err, ErrNothingToPaste):
		return "nothing_to_paste"
	case errors.Is(err, ErrNoPendingPaste):
		return "no_pending_paste"
	case errors.Is(err, ErrPasteFailed):
		return "paste_failed"
	case errors.Is(err, ErrStaleResult):
		return "stale_result"
	case errors.Is(err, ErrEmptyTranscript):
		return "empty_transcript"
	case errors.Is(err, ErrPipelineUnavailable):
		return "pipeline_unavailable"
	case errors.Is(err, ErrShuttingDown):
		return "shutting_down"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		var cfgErr *template.ConfigError
		if errors.As(err, &cfgErr) {
			return "config_error"
		}
		return "internal"
	}
}
