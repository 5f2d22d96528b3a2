package indicator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rbright/dictum/internal/command"
	"github.com/rbright/dictum/internal/config"
	"github.com/rbright/dictum/internal/session"
	"github.com/stretchr/testify/require"
)

// stubTool installs an executable named tool on PATH that runs body and
// then records its arguments. The returned func reads the recorded calls.
func stubTool(t *testing.T, tool, body string) func() []string {
	t.Helper()
	dir := t.TempDir()
	log := filepath.Join(dir, tool+".log")
	script := "#!/usr/bin/env bash\nset -euo pipefail\nprintf '%s\\n' \"$*\" >> " + log + "\n" + body + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, tool), []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	return func() []string {
		data, err := os.ReadFile(log)
		if os.IsNotExist(err) {
			return nil
		}
		require.NoError(t, err)
		return strings.Split(strings.TrimSpace(string(data)), "\n")
	}
}

func quietConfig() config.IndicatorConfig {
	cfg := config.Default().Indicator
	cfg.SoundEnable = false
	return cfg
}

func TestNotifierHyprLifecycle(t *testing.T) {
	calls := stubTool(t, "hyprctl", "")

	n := NewNotifier(quietConfig(), nil)
	n.ShowRecording(context.Background())
	n.ShowTranscribing(context.Background())
	n.ShowError(context.Background(), "")
	n.Hide(context.Background())

	require.Equal(t, []string{
		"--quiet dispatch notify 1 300000 rgb(89b4fa) Recording…",
		"--quiet dispatch notify 1 300000 rgb(cba6f7) Transcribing…",
		"--quiet dispatch notify 3 1600 rgb(f38ba8) Dictation error",
		"--quiet dispatch dismissnotify",
	}, calls())
}

func TestNotifierErrorTimeoutDefault(t *testing.T) {
	calls := stubTool(t, "hyprctl", "")

	cfg := quietConfig()
	cfg.ErrorTimeoutMS = 0
	NewNotifier(cfg, nil).ShowError(context.Background(), "custom error")

	require.Equal(t, []string{"--quiet dispatch notify 3 1200 rgb(f38ba8) custom error"}, calls())
}

func TestNotifierDisabledStaysSilent(t *testing.T) {
	calls := stubTool(t, "hyprctl", "")

	cfg := quietConfig()
	cfg.Enable = false
	n := NewNotifier(cfg, nil)
	n.ShowRecording(context.Background())
	n.ShowTranscribing(context.Background())
	n.ShowError(context.Background(), "ignored")
	n.Report(context.Background(), session.Outcome{Code: "unknown_field"})
	n.Hide(context.Background())

	require.Empty(t, calls())
}

func TestNotifierSurvivesSurfaceFailure(t *testing.T) {
	calls := stubTool(t, "hyprctl", "exit 1")

	n := NewNotifier(quietConfig(), nil)
	n.ShowRecording(context.Background())
	n.Hide(context.Background())
	require.Len(t, calls(), 2)
}

func TestNotifierReportRoutesOutcomes(t *testing.T) {
	calls := stubTool(t, "hyprctl", "")

	n := NewNotifier(quietConfig(), nil)
	n.Report(context.Background(), session.Outcome{Command: command.KindFillField, Code: "unknown_field"})
	n.Report(context.Background(), session.Outcome{OK: true, Command: command.KindFillField, Changed: []string{"indication"}})
	n.Report(context.Background(), session.Outcome{OK: true, Command: command.KindAppendText})
	n.Report(context.Background(), session.Outcome{OK: true, Command: command.KindPasteBuffer, Message: "pasted 12 characters"})

	require.Equal(t, []string{
		"--quiet dispatch notify 3 1600 rgb(f38ba8) No such field in this template",
		"--quiet dispatch notify 5 1200 rgb(a6e3a1) Filled indication",
		"--quiet dispatch notify 5 1200 rgb(a6e3a1) pasted 12 characters",
	}, calls())
}

func TestNotifierReportSkipsSuccessWithoutOutcomeTimeout(t *testing.T) {
	calls := stubTool(t, "hyprctl", "")

	cfg := quietConfig()
	cfg.OutcomeTimeoutMS = 0
	NewNotifier(cfg, nil).Report(context.Background(), session.Outcome{OK: true, Changed: []string{"plan"}})

	require.Empty(t, calls())
}

func TestNotifierDesktopReplacesAndCloses(t *testing.T) {
	calls := stubTool(t, "busctl", `
case "$*" in
  *" Notify "*) echo "u 41" ;;
esac`)

	cfg := quietConfig()
	cfg.Backend = "desktop"
	cfg.DesktopAppName = " "
	n := NewNotifier(cfg, nil)

	n.ShowRecording(context.Background())
	n.ShowError(context.Background(), "Paste failed")
	n.Hide(context.Background())
	n.Hide(context.Background())

	prefix := "--user call org.freedesktop.Notifications /org/freedesktop/Notifications org.freedesktop.Notifications "
	require.Equal(t, []string{
		prefix + "Notify susssasa{sv}i dictum-indicator 0  Recording…  0 0 300000",
		prefix + "Notify susssasa{sv}i dictum-indicator 41  Paste failed  0 1 urgency y 2 1600",
		prefix + "CloseNotification u 41",
	}, calls(), "the second Hide has no notification to close")
}

func TestParseNotificationID(t *testing.T) {
	id, err := parseNotificationID("u 17")
	require.NoError(t, err)
	require.Equal(t, uint32(17), id)

	_, err = parseNotificationID("s nope")
	require.ErrorContains(t, err, "unexpected Notify reply")

	_, err = parseNotificationID("u x")
	require.ErrorContains(t, err, "parse notification id")
}
