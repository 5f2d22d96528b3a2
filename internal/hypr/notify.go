package hypr

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Icon selects the glyph Hyprland draws next to a notification.
type Icon int

const (
	IconNone     Icon = -1
	IconWarning  Icon = 0
	IconInfo     Icon = 1
	IconHint     Icon = 2
	IconError    Icon = 3
	IconConfused Icon = 4
	IconOK       Icon = 5
)

// DefaultColor is used when a Notification leaves Color empty.
const DefaultColor = "rgb(89b4fa)"

// Notification is one `hyprctl dispatch notify` call.
type Notification struct {
	Icon    Icon
	Timeout time.Duration
	Color   string
	Text    string
}

func (n Notification) args() []string {
	color := strings.TrimSpace(n.Color)
	if color == "" {
		color = DefaultColor
	}
	return []string{
		"notify",
		strconv.Itoa(int(n.Icon)),
		strconv.FormatInt(n.Timeout.Milliseconds(), 10),
		color,
		n.Text,
	}
}

// Notify shows n on the compositor's notification overlay.
func Notify(ctx context.Context, n Notification) error {
	return dispatch(ctx, n.args()...)
}

// DismissNotify clears every compositor notification.
func DismissNotify(ctx context.Context) error {
	return dispatch(ctx, "dismissnotify")
}
