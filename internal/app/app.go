// Package app dispatches parsed CLI commands: local commands run in-process,
// document commands are forwarded to the owner started by `dictum serve`.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/rbright/dictum/internal/cli"
	"github.com/rbright/dictum/internal/config"
	"github.com/rbright/dictum/internal/logging"
	"github.com/rbright/dictum/internal/version"
)

// Runner carries the process streams. Logger overrides the file logger
// built from config, which tests use to capture output.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// invocation is everything a command needs once config and logging are up.
type invocation struct {
	parsed cli.Parsed
	loaded config.Loaded
	logger *slog.Logger
}

type commandFunc func(Runner, context.Context, invocation) int

var localCommands = map[cli.Command]commandFunc{
	cli.CommandServe: func(r Runner, ctx context.Context, inv invocation) int {
		return r.commandServe(ctx, inv.loaded, inv.logger)
	},
	cli.CommandDoctor:  Runner.commandDoctor,
	cli.CommandDevices: Runner.commandDevices,
	cli.CommandStatus: func(r Runner, ctx context.Context, inv invocation) int {
		return r.commandStatus(ctx, inv.parsed)
	},
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return Runner{Stdout: stdout, Stderr: stderr}.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	switch {
	case err != nil:
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("dictum"))
		return 2
	case parsed.ShowHelp:
		fmt.Fprint(r.Stdout, cli.HelpText("dictum"))
		return 0
	case parsed.Command == cli.CommandVersion:
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	run, ok := localCommands[parsed.Command]
	if !ok && !parsed.Command.Forwarded() {
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
	if !ok {
		run = func(r Runner, ctx context.Context, inv invocation) int {
			return r.forwardOrFail(ctx, inv.parsed, inv.loaded.Config)
		}
	}

	loaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logs, err := logging.New(logOptions(loaded.Config.Log))
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logs.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logs.Logger
	}
	r.reportWarnings(parsed, loaded.Warnings, logger)

	logger.Debug("command start", "command", parsed.Command, "config", loaded.Path, "log", logs.Path)
	return run(r, ctx, invocation{parsed: parsed, loaded: loaded, logger: logger})
}

// reportWarnings logs config warnings. Forwarded commands keep stderr quiet
// because the owner already printed them at startup.
func (r Runner) reportWarnings(parsed cli.Parsed, warnings []config.Warning, logger *slog.Logger) {
	for _, w := range warnings {
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
		if parsed.Command.Forwarded() {
			continue
		}
		if w.Line > 0 {
			fmt.Fprintf(r.Stderr, "warning: line %d: %s\n", w.Line, w.Message)
		} else {
			fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		}
	}
}

func logOptions(cfg config.LogConfig) logging.Options {
	return logging.Options{
		Path:       cfg.Path,
		Level:      cfg.Level,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
	}
}

func (r Runner) printJSON(v any) int {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: encode json: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, string(body))
	return 0
}
