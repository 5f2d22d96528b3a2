package hypr

import (
	"context"
	"errors"
	"strings"
)

// ActiveWindow is the focused client a paste is aimed at.
type ActiveWindow struct {
	Address      string `json:"address"`
	Class        string `json:"class"`
	InitialClass string `json:"initialClass"`
}

// Version is the subset of `hyprctl -j version` logged at startup.
type Version struct {
	Tag    string `json:"tag"`
	Commit string `json:"commit"`
}

type monitor struct {
	Name    string `json:"name"`
	Focused bool   `json:"focused"`
}

// QueryActiveWindow returns the focused client. A window without an address
// cannot be targeted and is reported as an error.
func QueryActiveWindow(ctx context.Context) (ActiveWindow, error) {
	w, err := query[ActiveWindow](ctx, "activewindow")
	if err != nil {
		return ActiveWindow{}, err
	}
	w.Address = strings.TrimSpace(w.Address)
	w.Class = strings.TrimSpace(w.Class)
	w.InitialClass = strings.TrimSpace(w.InitialClass)
	if w.Address == "" {
		return ActiveWindow{}, errors.New("hyprctl activewindow returned empty address")
	}
	return w, nil
}

// QueryFocusedMonitor names the focused output, or the first one listed when
// none reports focus.
func QueryFocusedMonitor(ctx context.Context) (string, error) {
	monitors, err := query[[]monitor](ctx, "monitors")
	if err != nil {
		return "", err
	}
	if len(monitors) == 0 {
		return "", errors.New("hyprctl monitors returned no outputs")
	}
	pick := monitors[0]
	for _, m := range monitors {
		if m.Focused {
			pick = m
			break
		}
	}
	return strings.TrimSpace(pick.Name), nil
}

// QueryVersion reports the compositor build; an empty tag becomes "unknown".
func QueryVersion(ctx context.Context) (Version, error) {
	v, err := query[Version](ctx, "version")
	if err != nil {
		return Version{}, err
	}
	if v.Tag = strings.TrimSpace(v.Tag); v.Tag == "" {
		v.Tag = "unknown"
	}
	return v, nil
}

// SendShortcut dispatches a literal sendshortcut payload such as
// "CTRL,V,address:0xabc".
func SendShortcut(ctx context.Context, shortcut string) error {
	shortcut = strings.TrimSpace(shortcut)
	if shortcut == "" {
		return errors.New("sendshortcut requires a non-empty payload")
	}
	return dispatch(ctx, "sendshortcut", shortcut)
}
