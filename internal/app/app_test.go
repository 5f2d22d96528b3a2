package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rbright/dictum/internal/audio"
	"github.com/rbright/dictum/internal/config"
	"github.com/rbright/dictum/internal/ipc"
	"github.com/stretchr/testify/require"
)

func TestExecuteHelp(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"--help"}, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "Usage:")
	require.Empty(t, stderr.String())
}

func TestExecuteVersion(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"version"}, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "dictum")
	require.Empty(t, stderr.String())
}

func TestExecuteUnknownCommand(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"definitely-not-a-command"}, &stdout, &stderr)
	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), "unknown command")
	require.Contains(t, stderr.String(), "Usage:")
}

func TestExecuteInvalidConfigFails(t *testing.T) {
	paths := setupRunnerEnv(t)
	require.NoError(t, os.WriteFile(paths.configPath, []byte(`{"history": {"limit": 0}}`), 0o600))

	var stderr bytes.Buffer
	runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "status"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "history.limit")
}

func TestRunnerStatusIdleWhenSocketUnavailable(t *testing.T) {
	paths := setupRunnerEnv(t)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "status"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "idle\n", stdout.String())
	require.Empty(t, stderr.String())
}

func TestRunnerForwardedCommandWithoutOwner(t *testing.T) {
	paths := setupRunnerEnv(t)

	for _, args := range [][]string{{"stop"}, {"undo"}, {"say", "hello"}} {
		var stderr bytes.Buffer
		runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &stderr}

		exitCode := runner.Execute(context.Background(), append([]string{"--config", paths.configPath}, args...))
		require.Equal(t, 1, exitCode, args)
		require.Contains(t, stderr.String(), "no active dictum session", args)
	}
}

func TestRunnerForwardsCommandsToActiveSession(t *testing.T) {
	paths := setupRunnerEnv(t)
	requests := make(chan ipc.Request, 16)

	shutdown := startIPCServerForRunnerTest(t, filepath.Join(paths.runtimeDir, "dictum.sock"), func(_ context.Context, req ipc.Request) ipc.Response {
		requests <- req
		switch req.Command {
		case "status":
			return ipc.Response{OK: true, State: "recording"}
		default:
			return ipc.Response{OK: true, Message: req.Command + " handled"}
		}
	})
	defer shutdown()

	commands := [][]string{{"status"}, {"stop"}, {"cancel"}, {"toggle"}, {"undo"}, {"redo"}, {"paste"}, {"undo-paste"}, {"reload"}, {"say", "set", "plan", "to", "rest"}}
	for _, args := range commands {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		runner := Runner{Stdout: stdout, Stderr: stderr}

		exitCode := runner.Execute(context.Background(), append([]string{"--config", paths.configPath}, args...))
		require.Equal(t, 0, exitCode, args)
		require.Empty(t, stderr.String(), args)
	}

	got := make([]string, 0, len(commands))
	var sayText string
	for range commands {
		req := <-requests
		got = append(got, req.Command)
		if req.Command == "say" {
			sayText = req.Text
		}
	}
	require.ElementsMatch(t, []string{"status", "stop", "cancel", "toggle", "undo", "redo", "paste", "undo-paste", "reload", "say"}, got)
	require.Equal(t, "set plan to rest", sayText)
}

func TestRunnerPrintsFailureCode(t *testing.T) {
	paths := setupRunnerEnv(t)

	shutdown := startIPCServerForRunnerTest(t, filepath.Join(paths.runtimeDir, "dictum.sock"), func(context.Context, ipc.Request) ipc.Response {
		return ipc.Response{OK: false, Code: "history_underflow", Error: "nothing to undo"}
	})
	defer shutdown()

	var stderr bytes.Buffer
	runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "undo"})
	require.Equal(t, 1, exitCode)
	require.Equal(t, "error: nothing to undo (history_underflow)\n", stderr.String())
}

func TestRunnerRenderFieldsAndTemplates(t *testing.T) {
	paths := setupRunnerEnv(t)
	color.NoColor = true

	high := 0.92
	low := 0.5
	shutdown := startIPCServerForRunnerTest(t, filepath.Join(paths.runtimeDir, "dictum.sock"), func(_ context.Context, req ipc.Request) ipc.Response {
		if req.Command == "templates" && req.Text != "" {
			return ipc.Response{OK: true, Template: &ipc.TemplateInfo{Key: req.Text, Fields: []string{"plan", "follow_up"}, Length: 35}}
		}
		return ipc.Response{
			OK:        true,
			Macro:     "progress",
			Revision:  4,
			Document:  "Plan: rest\nFollow up: {follow_up}",
			Templates: []string{"discharge", "progress"},
			Fields: []ipc.Field{
				{Name: "plan", Value: "rest", Confidence: &high, Tier: "high", Provenance: "ai-extracted"},
				{Name: "follow_up"},
				{Name: "dose", Value: "5 mg", Confidence: &low, Tier: "low", Provenance: "fallback-extracted"},
				{Name: "date", Value: "May 1, 2026", Provenance: "manual"},
			},
		}
	})
	defer shutdown()

	run := func(args ...string) string {
		var stdout bytes.Buffer
		runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}}
		require.Equal(t, 0, runner.Execute(context.Background(), append([]string{"--config", paths.configPath}, args...)))
		return stdout.String()
	}

	require.Equal(t, "Plan: rest\nFollow up: {follow_up}\n", run("render"))
	require.Equal(t, "discharge\nprogress\n", run("templates"))
	require.Equal(t, "progress (2 fields, 35 characters)\n  plan\n  follow_up\n", run("templates", "progress"))

	fields := run("fields")
	require.Contains(t, fields, "progress (revision 4)")
	require.Contains(t, fields, "plan       rest  [ai-extracted 0.92 high]")
	require.Contains(t, fields, "follow_up  (empty)")
	require.Contains(t, fields, "dose       5 mg  [fallback-extracted 0.50 low]")
	require.Contains(t, fields, "date       May 1, 2026  [manual]")
}

func TestRunnerJSONOutput(t *testing.T) {
	paths := setupRunnerEnv(t)

	shutdown := startIPCServerForRunnerTest(t, filepath.Join(paths.runtimeDir, "dictum.sock"), func(_ context.Context, req ipc.Request) ipc.Response {
		return ipc.Response{OK: true, State: "idle", Changed: []string{"plan"}, Revision: 2}
	})
	defer shutdown()

	var stdout bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}}
	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "--json", "say", "plan", "is", "rest"})
	require.Equal(t, 0, exitCode)

	var resp ipc.Response
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
	require.Equal(t, []string{"plan"}, resp.Changed)
	require.Equal(t, uint64(2), resp.Revision)
}

func TestForwardTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.Extraction.TimeoutMS = 3000
	require.Equal(t, 5*time.Second, forwardTimeout("say", cfg))
	require.Equal(t, defaultForwardTimeout, forwardTimeout("undo", cfg))
}

func TestTryForwardSuccessAndFailureResponses(t *testing.T) {
	runtimeDir := t.TempDir()
	socketPath := filepath.Join(runtimeDir, "dictum.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	serverCtx, cancelServer := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- ipc.Serve(serverCtx, listener, ipc.HandlerFunc(func(_ context.Context, req ipc.Request) ipc.Response {
			switch req.Command {
			case "status":
				return ipc.Response{OK: true, State: "recording"}
			default:
				return ipc.Response{OK: false, Error: "unsupported"}
			}
		}))
	}()

	resp, handled, err := tryForward(context.Background(), socketPath, ipc.Request{Command: "status"}, time.Second)
	require.True(t, handled)
	require.NoError(t, err)
	require.Equal(t, "recording", resp.State)

	_, handled, err = tryForward(context.Background(), socketPath, ipc.Request{Command: "cancel"}, time.Second)
	require.True(t, handled)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported")

	cancelServer()
	require.NoError(t, <-serverDone)
}

func TestTryForwardDoesNotRemoveSocketPathOnForwardFailure(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "dictum.sock")
	require.NoError(t, os.WriteFile(socketPath, []byte("stale"), 0o600))

	_, handled, err := tryForward(context.Background(), socketPath, ipc.Request{Command: "status"}, time.Second)
	require.False(t, handled)
	require.NoError(t, err)

	_, statErr := os.Stat(socketPath)
	require.NoError(t, statErr)
}

func TestTryForwardTreatsReadFailuresAsHandledErrors(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "dictum.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, acceptErr := listener.Accept()
		if acceptErr == nil {
			_ = conn.Close()
		}
	}()

	_, handled, err := tryForward(context.Background(), socketPath, ipc.Request{Command: "status"}, time.Second)
	require.True(t, handled)
	require.Error(t, err)
	require.Contains(t, err.Error(), "forward command \"status\":")

	<-done
	_, statErr := os.Stat(socketPath)
	require.NoError(t, statErr)
	require.NoError(t, listener.Close())
}

func TestRunnerDoctorCommandDispatchesAndPrintsReport(t *testing.T) {
	paths := setupRunnerEnv(t)
	t.Setenv("XDG_SESSION_TYPE", "x11")
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "doctor"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stdout.String(), "config: loaded")
	require.Contains(t, stdout.String(), "XDG_SESSION_TYPE")
	require.Contains(t, stdout.String(), "templates:")
}

func TestRunnerDevicesCommandDispatches(t *testing.T) {
	paths := setupRunnerEnv(t)
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "devices"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "error:")
}

func TestRunnerDoctorJSON(t *testing.T) {
	paths := setupRunnerEnv(t)
	t.Setenv("XDG_SESSION_TYPE", "x11")
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")

	var stdout bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "--json", "doctor"})
	require.Equal(t, 1, exitCode)

	var report struct {
		Checks []struct {
			Name string `json:"name"`
			Pass bool   `json:"pass"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	require.NotEmpty(t, report.Checks)
	require.Equal(t, "config", report.Checks[0].Name)
	require.True(t, report.Checks[0].Pass)
}

func TestWriteDevicesAlignsColumns(t *testing.T) {
	var stdout bytes.Buffer
	writeDevices(Runner{Stdout: &stdout}, []audio.Device{
		{ID: "alsa_input.usb", Description: "USB Mic", State: "running", Available: true, Default: true},
		{ID: "bt", Description: "Headset", State: "suspended", Available: true, Muted: true},
	})

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "DESCRIPTION")
	require.True(t, strings.HasPrefix(lines[1], "*"))
	require.Contains(t, lines[1], "USB Mic")
	require.Contains(t, lines[2], "muted")
	require.Equal(t, strings.Index(lines[1], "USB Mic"), strings.Index(lines[2], "Headset"))
}

func TestServeFailsOnTemplateConfigError(t *testing.T) {
	paths := setupRunnerEnv(t)
	require.NoError(t, os.WriteFile(paths.templatesPath, []byte(`{"progress": "Plan: {plan"}`), 0o600))

	var stderr bytes.Buffer
	runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "serve"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "progress")

	_, statErr := os.Stat(filepath.Join(paths.runtimeDir, "dictum.sock"))
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestServeHandlesDictationEndToEnd(t *testing.T) {
	paths := setupRunnerEnv(t)
	require.NoError(t, os.WriteFile(paths.templatesPath, []byte(`{
  // daily note
  "progress": "Plan: {plan}"
}`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var serveOut bytes.Buffer
	serveDone := make(chan int, 1)
	go func() {
		runner := Runner{Stdout: &serveOut, Stderr: &bytes.Buffer{}}
		serveDone <- runner.Execute(ctx, []string{"--config", paths.configPath, "serve"})
	}()

	socketPath := filepath.Join(paths.runtimeDir, "dictum.sock")
	require.Eventually(t, func() bool {
		alive, _ := ipc.Probe(context.Background(), socketPath, 100*time.Millisecond)
		return alive
	}, 5*time.Second, 20*time.Millisecond)

	run := func(args ...string) (int, string) {
		var stdout bytes.Buffer
		runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}}
		code := runner.Execute(context.Background(), append([]string{"--config", paths.configPath}, args...))
		return code, stdout.String()
	}

	code, _ := run("say", "insert", "progress")
	require.Equal(t, 0, code)
	code, _ = run("say", "set", "plan", "to", "rest", "and", "fluids")
	require.Equal(t, 0, code)

	code, out := run("render")
	require.Equal(t, 0, code)
	require.Equal(t, "Plan: rest and fluids\n", out)

	code, _ = run("undo")
	require.Equal(t, 0, code)
	_, out = run("render")
	require.Equal(t, "Plan: {plan}\n", out)

	cancel()
	select {
	case exit := <-serveDone:
		require.Equal(t, 0, exit)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}

	_, statErr := os.Stat(socketPath)
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestBuildResolverBackends(t *testing.T) {
	cfg := config.Default().Extraction

	cfg.Backend = config.BackendNone
	resolver, closer, err := buildResolver(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, resolver)
	require.Nil(t, closer)

	cfg.Backend = config.BackendGRPC
	resolver, closer, err = buildResolver(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, resolver)
	require.NotNil(t, closer)
	require.NoError(t, closer())

	cfg.Backend = config.BackendOpenAI
	cfg.Model = ""
	_, _, err = buildResolver(cfg, nil)
	require.Error(t, err)

	cfg.Backend = "carrier-pigeon"
	_, _, err = buildResolver(cfg, nil)
	require.ErrorContains(t, err, "unsupported extraction backend")
}

type runnerPaths struct {
	configPath    string
	templatesPath string
	runtimeDir    string
}

func setupRunnerEnv(t *testing.T) runnerPaths {
	t.Helper()

	xdgStateHome := t.TempDir()
	runtimeDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", xdgStateHome)
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")

	configDir := t.TempDir()
	configPath := filepath.Join(configDir, "config.jsonc")
	require.NoError(t, os.WriteFile(configPath, []byte(`{
  "indicator": {"enable": false, "sound_enable": false},
  "paste": {"enable": false}
}`), 0o600))

	return runnerPaths{
		configPath:    configPath,
		templatesPath: filepath.Join(configDir, "templates.jsonc"),
		runtimeDir:    runtimeDir,
	}
}

func startIPCServerForRunnerTest(t *testing.T, socketPath string, handler func(context.Context, ipc.Request) ipc.Response) func() {
	t.Helper()

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ipc.Serve(ctx, listener, ipc.HandlerFunc(handler))
	}()

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}
