package hypr

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeHyprctl puts a hyprctl script on PATH. Dispatch calls are appended to a
// log that the returned func reads back.
func fakeHyprctl(t *testing.T, replies string) func() []string {
	t.Helper()
	dir := t.TempDir()
	log := filepath.Join(dir, "calls.log")
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + replies +
		"\nprintf '%s\\n' \"$*\" >> " + log + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hyprctl"), []byte(script), 0o755))
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

func TestQueryActiveWindowTrimsFields(t *testing.T) {
	fakeHyprctl(t, `[[ "$*" == "-j activewindow" ]] && { echo '{"address":" 0xabc ","class":" kitty ","initialClass":" Kitty "}'; exit 0; }`)

	w, err := QueryActiveWindow(context.Background())
	require.NoError(t, err)
	require.Equal(t, ActiveWindow{Address: "0xabc", Class: "kitty", InitialClass: "Kitty"}, w)
}

func TestQueryActiveWindowWithoutAddress(t *testing.T) {
	fakeHyprctl(t, `echo '{"address":"","class":"kitty"}'; exit 0`)

	_, err := QueryActiveWindow(context.Background())
	require.ErrorContains(t, err, "empty address")
}

func TestQueryActiveWindowBadJSON(t *testing.T) {
	fakeHyprctl(t, `echo 'Invalid'; exit 0`)

	_, err := QueryActiveWindow(context.Background())
	require.ErrorContains(t, err, "decode hyprctl activewindow json")
}

func TestQueryFocusedMonitor(t *testing.T) {
	cases := map[string]struct {
		json string
		want string
		err  string
	}{
		"focused":      {json: `[{"name":"HDMI-A-1"},{"name":" DP-1 ","focused":true}]`, want: "DP-1"},
		"first listed": {json: `[{"name":"eDP-1"},{"name":"DP-2"}]`, want: "eDP-1"},
		"no outputs":   {json: `[]`, err: "no outputs"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			fakeHyprctl(t, `echo '`+tc.json+`'; exit 0`)
			got, err := QueryFocusedMonitor(context.Background())
			if tc.err != "" {
				require.ErrorContains(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestQueryVersion(t *testing.T) {
	fakeHyprctl(t, `echo '{"tag":" v0.45.2 ","commit":"abc123"}'; exit 0`)
	v, err := QueryVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, Version{Tag: "v0.45.2", Commit: "abc123"}, v)

	fakeHyprctl(t, `echo '{}'; exit 0`)
	v, err = QueryVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, "unknown", v.Tag)
}

func TestSendShortcut(t *testing.T) {
	calls := fakeHyprctl(t, "")

	require.ErrorContains(t, SendShortcut(context.Background(), " "), "non-empty payload")
	require.NoError(t, SendShortcut(context.Background(), " CTRL,V,address:0xabc "))
	require.Equal(t, []string{"--quiet dispatch sendshortcut CTRL,V,address:0xabc"}, calls())
}

func TestSendShortcutSurfacesHyprctlOutput(t *testing.T) {
	fakeHyprctl(t, `echo 'no such window' >&2; exit 1`)

	err := SendShortcut(context.Background(), "CTRL,V,address:0xabc")
	require.ErrorContains(t, err, "no such window")
}

func TestNotifyAndDismiss(t *testing.T) {
	calls := fakeHyprctl(t, "")

	require.NoError(t, Notify(context.Background(), Notification{Icon: IconError, Timeout: 1200 * time.Millisecond, Text: "Extraction failed"}))
	require.NoError(t, Notify(context.Background(), Notification{Icon: IconOK, Timeout: time.Second, Color: "rgb(a6e3a1)", Text: "Filled plan"}))
	require.NoError(t, DismissNotify(context.Background()))

	require.Equal(t, []string{
		"--quiet dispatch notify 3 1200 rgb(89b4fa) Extraction failed",
		"--quiet dispatch notify 5 1000 rgb(a6e3a1) Filled plan",
		"--quiet dispatch dismissnotify",
	}, calls())
}
