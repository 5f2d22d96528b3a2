// Package doctor runs runtime readiness diagnostics for config, templates,
// tools, audio, and the inference services.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/rbright/dictum/internal/audio"
	"github.com/rbright/dictum/internal/config"
	"github.com/rbright/dictum/internal/hypr"
	"github.com/rbright/dictum/internal/inference"
	"github.com/rbright/dictum/internal/template"
)

const (
	probeTimeout = 2 * time.Second
	parallelism  = 4
)

type Check struct {
	Name    string `json:"name"`
	Pass    bool   `json:"pass"`
	Message string `json:"message"`
}

// Report is the ordered list of checks.
type Report struct {
	Checks []Check `json:"checks"`
}

func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
)

// String renders one line per check. Labels are colored unless color is
// disabled (NO_COLOR or a non-terminal stdout).
func (r Report) String() string {
	lines := make([]string, 0, len(r.Checks))
	for _, check := range r.Checks {
		label := passColor.Sprint("[OK]")
		if !check.Pass {
			label = failColor.Sprint("[FAIL]")
		}
		lines = append(lines, fmt.Sprintf("%s %s: %s", label, check.Name, check.Message))
	}
	return strings.Join(lines, "\n")
}

func pass(name, format string, args ...any) Check {
	return Check{Name: name, Pass: true, Message: fmt.Sprintf(format, args...)}
}

func fail(name, format string, args ...any) Check {
	return Check{Name: name, Message: fmt.Sprintf(format, args...)}
}

// probe produces one check. Probes that touch the outside world get a
// bounded context.
type probe func(context.Context) Check

func fixed(c Check) probe {
	return func(context.Context) Check { return c }
}

// plan lists the checks that apply to cfg, in report order.
func plan(loaded config.Loaded) []probe {
	cfg := loaded.Config
	probes := []probe{
		fixed(pass("config", "loaded %q", loaded.Path)),
		func(context.Context) Check { return checkTemplates(cfg.Templates.Path) },
		func(context.Context) Check {
			return checkEnv("XDG_SESSION_TYPE", func(v string) bool {
				return strings.EqualFold(strings.TrimSpace(v), "wayland")
			}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland")
		},
		func(context.Context) Check {
			return checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
				return strings.TrimSpace(v) != ""
			}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty")
		},
		func(context.Context) Check { return checkCommand(cfg.Clipboard, "clipboard_cmd") },
	}

	if cfg.Paste.Enable {
		overrides := []struct {
			name string
			cmd  config.CommandConfig
		}{{"paste_cmd", cfg.PasteCmd}, {"undo_paste_cmd", cfg.UndoPasteCmd}}
		for _, o := range overrides {
			o := o
			if len(o.cmd.Argv) > 0 {
				probes = append(probes, func(context.Context) Check { return checkCommand(o.cmd, o.name) })
			}
		}
		if len(cfg.PasteCmd.Argv) == 0 || len(cfg.UndoPasteCmd.Argv) == 0 {
			probes = append(probes, func(context.Context) Check {
				return checkBinary("hyprctl", "shortcut paste path requires hyprctl")
			})
		}
	}
	if cfg.Indicator.Enable {
		probes = append(probes, func(ctx context.Context) Check { return checkIndicator(ctx, cfg.Indicator) })
	}

	return append(probes,
		func(ctx context.Context) Check { return checkAudioSelection(ctx, cfg) },
		func(context.Context) Check { return checkSpeech(cfg.Speech) },
		func(ctx context.Context) Check { return checkExtraction(ctx, cfg.Extraction) },
	)
}

// Run executes every applicable probe, a few at a time, and reports them in
// plan order.
func Run(ctx context.Context, loaded config.Loaded) Report {
	probes := plan(loaded)
	checks := make([]Check, len(probes))

	var g errgroup.Group
	g.SetLimit(parallelism)
	for i, p := range probes {
		i, p := i, p
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, probeTimeout)
			defer cancel()
			checks[i] = p(pctx)
			return nil
		})
	}
	_ = g.Wait()
	return Report{Checks: checks}
}

func checkEnv(name string, ok func(string) bool, okMsg, failMsg string) Check {
	if ok(os.Getenv(name)) {
		return pass(name, "%s", okMsg)
	}
	return fail(name, "%s", failMsg)
}

// checkCommand validates that cmd names a runnable program.
func checkCommand(cmd config.CommandConfig, name string) Check {
	if len(cmd.Argv) == 0 {
		return fail(name, "command is empty")
	}
	return checkBinary(cmd.Argv[0], fmt.Sprintf("%s command is available: %s", name, cmd.String()))
}

func checkBinary(bin, why string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return fail(bin, "binary not found in PATH: %s", bin)
	}
	return pass(bin, "found at %s (%s)", path, why)
}

// checkIndicator confirms the notification surface answers.
func checkIndicator(ctx context.Context, cfg config.IndicatorConfig) Check {
	if strings.EqualFold(strings.TrimSpace(cfg.Backend), "desktop") {
		return checkBinary("busctl", "desktop notifications go over the session bus")
	}
	monitor, err := hypr.QueryFocusedMonitor(ctx)
	if err != nil {
		return fail("indicator.hypr", "%v", err)
	}
	return pass("indicator.hypr", "notifications show on %s", monitor)
}

// checkTemplates loads the template file the owner would load at startup.
func checkTemplates(path string) Check {
	store, err := template.Open(path)
	if err != nil {
		return fail("templates", "%v", err)
	}
	return pass("templates", "%d templates from %q", store.Len(), path)
}

// checkAudioSelection runs the same source selection `toggle` would.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return fail("audio.device", "%v", err)
	}
	if selection.Warning != "" {
		return pass("audio.device", "selected %q (%s)", selection.Device.ID, selection.Warning)
	}
	return pass("audio.device", "selected %q", selection.Device.ID)
}

// checkSpeech requires an API key unless a custom endpoint is configured.
func checkSpeech(cfg config.SpeechConfig) Check {
	switch {
	case config.APIKey(cfg.APIKeyEnv) != "":
		return pass("speech", "model %s, key from $%s", cfg.Model, cfg.APIKeyEnv)
	case strings.TrimSpace(cfg.BaseURL) != "":
		return pass("speech", "model %s at %s (no API key)", cfg.Model, cfg.BaseURL)
	default:
		return fail("speech", "$%s is empty and speech.base_url is unset", cfg.APIKeyEnv)
	}
}

// checkExtraction probes the configured primary extractor.
func checkExtraction(ctx context.Context, cfg config.ExtractionConfig, opts ...grpc.DialOption) Check {
	switch cfg.Backend {
	case config.BackendGRPC:
		return checkGRPCHealth(ctx, cfg.GRPC, opts...)
	case config.BackendOpenAI:
		if config.APIKey(cfg.APIKeyEnv) == "" && strings.TrimSpace(cfg.BaseURL) == "" {
			return fail("extraction", "$%s is empty and extraction.base_url is unset", cfg.APIKeyEnv)
		}
		return pass("extraction", "openai model %s", cfg.Model)
	default:
		return pass("extraction", "no primary extractor; pattern fallback only")
	}
}

// checkGRPCHealth queries the standard health service on endpoint.
func checkGRPCHealth(ctx context.Context, endpoint string, opts ...grpc.DialOption) Check {
	extractor, err := inference.DialExtractor(endpoint, opts...)
	if err != nil {
		return fail("extraction.grpc", "%v", err)
	}
	defer extractor.Close()

	status, err := extractor.Health(ctx)
	if err != nil {
		return fail("extraction.grpc", "%s: %v", endpoint, err)
	}
	return pass("extraction.grpc", "%s at %s", status, endpoint)
}
