package output

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rbright/dictum/internal/hypr"
)

const (
	windowLookupAttempts = 5
	windowLookupDelay    = 10 * time.Millisecond
)

// sendShortcut presses shortcut in the window at address, or in the active
// window when address is empty. It returns the address that received it.
func sendShortcut(ctx context.Context, shortcut, address string) (string, error) {
	shortcut = strings.TrimSpace(shortcut)
	if shortcut == "" {
		return "", errors.New("shortcut cannot be empty")
	}
	if address = strings.TrimSpace(address); address == "" {
		window, err := focusedWindow(ctx)
		if err != nil {
			return "", err
		}
		address = window.Address
	}
	if err := hypr.SendShortcut(ctx, shortcut+",address:"+address); err != nil {
		return "", err
	}
	return address, nil
}

// focusedWindow asks Hyprland for the active window, retrying briefly while
// focus settles after a keybind.
func focusedWindow(ctx context.Context) (hypr.ActiveWindow, error) {
	var err error
	for attempt := 1; ; attempt++ {
		var w hypr.ActiveWindow
		if w, err = hypr.QueryActiveWindow(ctx); err == nil {
			return w, nil
		}
		if attempt == windowLookupAttempts {
			return hypr.ActiveWindow{}, fmt.Errorf("resolve active window: %w", err)
		}
		select {
		case <-ctx.Done():
			return hypr.ActiveWindow{}, ctx.Err()
		case <-time.After(windowLookupDelay):
		}
	}
}
