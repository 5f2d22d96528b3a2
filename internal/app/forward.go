package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/rbright/dictum/internal/cli"
	"github.com/rbright/dictum/internal/config"
	"github.com/rbright/dictum/internal/extract"
	"github.com/rbright/dictum/internal/ipc"
)

const (
	defaultForwardTimeout = 2 * time.Second
	// extractionGrace covers socket and loop overhead on top of the
	// extraction deadline for `say`.
	extractionGrace = 2 * time.Second
)

func forwardTimeout(cmd cli.Command, cfg config.Config) time.Duration {
	if cmd == cli.CommandSay {
		return time.Duration(cfg.Extraction.TimeoutMS)*time.Millisecond + extractionGrace
	}
	return defaultForwardTimeout
}

func (r Runner) commandStatus(ctx context.Context, parsed cli.Parsed) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: "status"}, defaultForwardTimeout)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if parsed.JSON {
			return r.printJSON(resp)
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, parsed cli.Parsed, cfg config.Config) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	req := ipc.Request{Command: string(parsed.Command), Text: parsed.Text}
	resp, handled, err := tryForward(ctx, socketPath, req, forwardTimeout(parsed.Command, cfg))
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active dictum session; start one with `dictum serve`\n")
		return 1
	}
	if parsed.JSON {
		exit := r.printJSON(resp)
		if err != nil {
			return 1
		}
		return exit
	}
	if err != nil {
		if resp.Code != "" {
			fmt.Fprintf(r.Stderr, "error: %v (%s)\n", err, resp.Code)
		} else {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
		}
		return 1
	}

	switch parsed.Command {
	case cli.CommandRender:
		fmt.Fprintln(r.Stdout, resp.Document)
	case cli.CommandFields:
		r.printFields(resp)
	case cli.CommandTemplates:
		if t := resp.Template; t != nil {
			fmt.Fprintf(r.Stdout, "%s (%d fields, %d characters)\n", t.Key, len(t.Fields), t.Length)
			for _, name := range t.Fields {
				fmt.Fprintf(r.Stdout, "  %s\n", name)
			}
			break
		}
		for _, key := range resp.Templates {
			fmt.Fprintln(r.Stdout, key)
		}
	default:
		if resp.Message != "" {
			fmt.Fprintln(r.Stdout, resp.Message)
		}
		if len(resp.Changed) > 0 {
			fmt.Fprintf(r.Stdout, "changed: %s\n", strings.Join(resp.Changed, ", "))
		}
	}
	return 0
}

// printFields lists one field per line, colored by confidence tier.
func (r Runner) printFields(resp ipc.Response) {
	if resp.Macro == "" {
		fmt.Fprintln(r.Stdout, "no macro loaded")
		return
	}
	fmt.Fprintf(r.Stdout, "%s (revision %d)\n", resp.Macro, resp.Revision)

	width := 0
	for _, f := range resp.Fields {
		width = max(width, len(f.Name))
	}
	for _, f := range resp.Fields {
		fmt.Fprintf(r.Stdout, "  %-*s  %s\n", width, f.Name, describeField(f))
	}
}

func describeField(f ipc.Field) string {
	if f.Value == "" {
		return color.New(color.Faint).Sprint("(empty)")
	}
	if f.Confidence == nil {
		return fmt.Sprintf("%s  [%s]", f.Value, f.Provenance)
	}

	detail := fmt.Sprintf("%s  [%s %.2f %s]", f.Value, f.Provenance, *f.Confidence, f.Tier)
	switch extract.Tier(f.Tier) {
	case extract.TierHigh:
		return color.GreenString(detail)
	case extract.TierMedium:
		return color.YellowString(detail)
	default:
		return color.RedString(detail)
	}
}

func tryForward(ctx context.Context, socketPath string, req ipc.Request, timeout time.Duration) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, req, timeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if ipc.Unreachable(err) {
		return ipc.Response{}, false, nil
	}
	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}
