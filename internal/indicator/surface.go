package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rbright/dictum/internal/hypr"
)

type noticeKind int

const (
	noticeRecording noticeKind = iota
	noticeTranscribing
	noticeError
	noticeOutcome
)

// notice is one message for the notification surface.
type notice struct {
	kind    noticeKind
	text    string
	timeout time.Duration
}

// surface is where notices appear. show replaces whatever the surface
// displayed last.
type surface interface {
	show(context.Context, notice) error
	clear(context.Context) error
}

type hyprStyle struct {
	icon  hypr.Icon
	color string
}

var hyprStyles = map[noticeKind]hyprStyle{
	noticeRecording:    {hypr.IconInfo, "rgb(89b4fa)"},
	noticeTranscribing: {hypr.IconInfo, "rgb(cba6f7)"},
	noticeError:        {hypr.IconError, "rgb(f38ba8)"},
	noticeOutcome:      {hypr.IconOK, "rgb(a6e3a1)"},
}

// hyprSurface draws on the compositor's notification overlay.
type hyprSurface struct{}

func (hyprSurface) show(ctx context.Context, n notice) error {
	style := hyprStyles[n.kind]
	return hypr.Notify(ctx, hypr.Notification{Icon: style.icon, Timeout: n.timeout, Color: style.color, Text: n.text})
}

func (hyprSurface) clear(ctx context.Context) error {
	return hypr.DismissNotify(ctx)
}

// desktopSurface sends freedesktop notifications over the session bus. Each
// notice replaces the previous one by ID.
type desktopSurface struct {
	app string

	mu sync.Mutex
	id uint32
}

const (
	notificationsDest  = "org.freedesktop.Notifications"
	notificationsPath  = "/org/freedesktop/Notifications"
	urgencyCritical    = "2"
	desktopNotifyShape = "susssasa{sv}i"
)

func (d *desktopSurface) show(ctx context.Context, n notice) error {
	d.mu.Lock()
	replace := d.id
	d.mu.Unlock()

	hints := []string{"0"}
	if n.kind == noticeError {
		hints = []string{"1", "urgency", "y", urgencyCritical}
	}
	args := []string{d.app, strconv.FormatUint(uint64(replace), 10), "", n.text, "", "0"}
	args = append(args, hints...)
	args = append(args, strconv.FormatInt(n.timeout.Milliseconds(), 10))

	out, err := busctl(ctx, "Notify", desktopNotifyShape, args...)
	if err != nil {
		return err
	}
	id, err := parseNotificationID(out)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.id = id
	d.mu.Unlock()
	return nil
}

func (d *desktopSurface) clear(ctx context.Context) error {
	d.mu.Lock()
	id := d.id
	d.id = 0
	d.mu.Unlock()

	if id == 0 {
		return nil
	}
	_, err := busctl(ctx, "CloseNotification", "u", strconv.FormatUint(uint64(id), 10))
	return err
}

// busctl calls a method on the user-bus notification daemon.
func busctl(ctx context.Context, method, signature string, args ...string) (string, error) {
	argv := append([]string{"--user", "call", notificationsDest, notificationsPath, notificationsDest, method, signature}, args...)
	out, err := exec.CommandContext(ctx, "busctl", argv...).CombinedOutput()
	reply := strings.TrimSpace(string(out))
	if err != nil {
		if reply == "" {
			return "", fmt.Errorf("busctl %s: %w", method, err)
		}
		return "", fmt.Errorf("busctl %s: %w (%s)", method, err, reply)
	}
	return reply, nil
}

// parseNotificationID reads busctl's "u <id>" reply.
func parseNotificationID(reply string) (uint32, error) {
	kind, value, ok := strings.Cut(reply, " ")
	if !ok || kind != "u" {
		return 0, fmt.Errorf("unexpected Notify reply %q", reply)
	}
	id, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse notification id %q: %w", value, err)
	}
	return uint32(id), nil
}
