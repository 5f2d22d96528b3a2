// Package output delivers the rendered draft to the focused window.
package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/rbright/dictum/internal/config"
)

var errPasteDisabled = errors.New("paste is disabled (paste.enable=false)")

// Paster sets the clipboard and dispatches paste/undo shortcuts. It
// implements session.Paster.
type Paster struct {
	config config.Config
	logger *slog.Logger

	mu sync.Mutex
	// window is the Hyprland address the last shortcut paste landed in; undo
	// goes there even if focus has moved.
	window string
}

// NewPaster constructs a paster from runtime config.
func NewPaster(cfg config.Config, logger *slog.Logger) *Paster {
	return &Paster{config: cfg, logger: logger}
}

// Paste writes text to the clipboard and, when enabled, triggers paste in the
// active window. The clipboard stays set when the paste step fails.
func (p *Paster) Paste(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	clipboardCtx, clipboardCancel := context.WithTimeout(ctx, 2*time.Second)
	defer clipboardCancel()
	if err := runCommandWithInput(clipboardCtx, p.config.Clipboard.Argv, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	if !p.config.Paste.Enable {
		return nil
	}

	window, err := p.dispatch(ctx, p.config.PasteCmd.Argv, p.config.Paste.Shortcut, "")
	if err != nil {
		p.logFailure("paste dispatch failed; clipboard remains set", err)
		return fmt.Errorf("dispatch paste: %w", err)
	}
	p.mu.Lock()
	p.window = window
	p.mu.Unlock()
	return nil
}

// UndoPaste reverts the last paste via undo_paste_cmd or
// paste.undo_shortcut. The shortcut goes to the window that received the
// paste, or to the active window when that is unknown.
func (p *Paster) UndoPaste(ctx context.Context) error {
	if !p.config.Paste.Enable {
		return errPasteDisabled
	}
	p.mu.Lock()
	window := p.window
	p.mu.Unlock()

	if _, err := p.dispatch(ctx, p.config.UndoPasteCmd.Argv, p.config.Paste.UndoShortcut, window); err != nil {
		p.logFailure("undo paste dispatch failed", err)
		return fmt.Errorf("dispatch undo paste: %w", err)
	}
	p.mu.Lock()
	p.window = ""
	p.mu.Unlock()
	return nil
}

// dispatch runs argv when configured, otherwise sends shortcut through
// Hyprland. It returns the window address a shortcut went to.
func (p *Paster) dispatch(ctx context.Context, argv []string, shortcut, window string) (string, error) {
	if len(argv) > 0 {
		cmdCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return "", runCommandWithInput(cmdCtx, argv, "")
	}

	shortcutCtx, cancel := context.WithTimeout(ctx, 1200*time.Millisecond)
	defer cancel()
	return sendShortcut(shortcutCtx, shortcut, window)
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}

func (p *Paster) logFailure(message string, err error) {
	if p.logger == nil || err == nil {
		return
	}
	p.logger.Error(message, "error", err.Error())
}
