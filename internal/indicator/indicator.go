// Package indicator renders capture state and command outcomes as
// notifications and audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/dictum/internal/config"
	"github.com/rbright/dictum/internal/session"
)

const (
	// stateTimeout keeps recording and transcribing notices up until replaced.
	stateTimeout        = 5 * time.Minute
	defaultErrorTimeout = 1200 * time.Millisecond
	dispatchTimeout     = 400 * time.Millisecond
)

// Notifier implements session.Indicator and session.Feedback on top of a
// Hyprland or desktop notification surface.
type Notifier struct {
	cfg     config.IndicatorConfig
	logger  *slog.Logger
	text    messages
	surface surface
	cues    *cuePlayer
}

// NewNotifier picks the surface named by cfg.Backend; anything other than
// "desktop" uses Hyprland.
func NewNotifier(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	var s surface = hyprSurface{}
	if strings.EqualFold(strings.TrimSpace(cfg.Backend), "desktop") {
		app := strings.TrimSpace(cfg.DesktopAppName)
		if app == "" {
			app = "dictum-indicator"
		}
		s = &desktopSurface{app: app}
	}
	return &Notifier{
		cfg:     cfg,
		logger:  logger,
		text:    indicatorMessagesFromEnv(),
		surface: s,
		cues:    &cuePlayer{cfg: cfg, logger: logger},
	}
}

// ShowRecording plays the start cue and shows the recording notice.
func (n *Notifier) ShowRecording(ctx context.Context) {
	n.cues.play(cueStart)
	n.show(ctx, notice{kind: noticeRecording, text: n.text.recording, timeout: stateTimeout})
}

// ShowTranscribing shows the post-capture notice.
func (n *Notifier) ShowTranscribing(ctx context.Context) {
	n.show(ctx, notice{kind: noticeTranscribing, text: n.text.processing, timeout: stateTimeout})
}

// ShowError shows text, or the generic error line when text is empty.
func (n *Notifier) ShowError(ctx context.Context, text string) {
	if text == "" {
		text = n.text.errorText
	}
	timeout := time.Duration(n.cfg.ErrorTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultErrorTimeout
	}
	n.show(ctx, notice{kind: noticeError, text: text, timeout: timeout})
}

// Report implements session.Feedback. Failures always cue and notify.
// Successes notify only when outcome_timeout_ms is positive and something
// changed or was said.
func (n *Notifier) Report(ctx context.Context, o session.Outcome) {
	if !o.OK {
		n.cues.play(cueError)
		n.ShowError(ctx, n.text.outcomeText(o))
		return
	}
	if n.cfg.OutcomeTimeoutMS <= 0 || (len(o.Changed) == 0 && o.Message == "") {
		return
	}
	n.show(ctx, notice{
		kind:    noticeOutcome,
		text:    n.text.outcomeText(o),
		timeout: time.Duration(n.cfg.OutcomeTimeoutMS) * time.Millisecond,
	})
}

func (n *Notifier) CueStop(context.Context)     { n.cues.play(cueStop) }
func (n *Notifier) CueComplete(context.Context) { n.cues.play(cueComplete) }
func (n *Notifier) CueCancel(context.Context)   { n.cues.play(cueCancel) }

// Hide clears the surface.
func (n *Notifier) Hide(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}
	n.dispatch(ctx, "clear", n.surface.clear)
}

func (n *Notifier) show(ctx context.Context, msg notice) {
	if !n.cfg.Enable {
		return
	}
	n.dispatch(ctx, "show", func(ctx context.Context) error { return n.surface.show(ctx, msg) })
}

// dispatch bounds a surface call; failures are logged at debug and dropped.
func (n *Notifier) dispatch(ctx context.Context, op string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	if err := fn(ctx); err != nil && n.logger != nil {
		n.logger.Debug("indicator dispatch failed", "op", op, "error", err.Error())
	}
}
