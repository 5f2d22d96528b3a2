package session

import (
	"context"
	"time"

	"github.com/rbright/dictum/internal/command"
)

// Outcome is the machine-readable result of one processed command.
type Outcome struct {
	ID        string        `json:"id"`
	SessionID string        `json:"session_id"`
	Command   command.Kind  `json:"command"`
	OK        bool          `json:"ok"`
	Code      string        `json:"code,omitempty"`
	Message   string        `json:"message,omitempty"`
	Changed   []string      `json:"changed_fields,omitempty"`
	Revision  uint64        `json:"revision"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// Feedback receives every outcome for display.
type Feedback interface {
	Report(context.Context, Outcome)
}

type noopFeedback struct{}

func (noopFeedback) Report(context.Context, Outcome) {}
