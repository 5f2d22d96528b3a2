// Package logging configures dictum's JSONL log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const fileName = "log.jsonl"

// Options controls log location, level, and rotation.
type Options struct {
	Path       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Runtime is a logger plus the rotating file behind it.
type Runtime struct {
	Logger *slog.Logger
	Path   string
	closer io.Closer
}

func (r Runtime) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// New opens (or creates) the log file and returns a JSON logger writing to
// it. Every record carries the process id so owner and client lines can be
// told apart in the shared file.
func New(opts Options) (Runtime, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		var err error
		if path, err = resolveLogPath(); err != nil {
			return Runtime{}, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return Runtime{}, fmt.Errorf("create log dir: %w", err)
	}

	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	handler := slog.NewJSONHandler(sink, &slog.HandlerOptions{
		Level:       ParseLevel(opts.Level),
		ReplaceAttr: readableDurations,
	})
	logger := slog.New(handler).With("pid", os.Getpid())
	return Runtime{Logger: logger, Path: path, closer: sink}, nil
}

// readableDurations logs time.Duration values as "1.5s" instead of nanoseconds.
func readableDurations(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindDuration {
		a.Value = slog.StringValue(a.Value.Duration().Round(time.Microsecond).String())
	}
	return a
}

// ParseLevel maps a config level name to slog, defaulting to info.
func ParseLevel(raw string) slog.Level {
	var level slog.Level
	switch name := strings.ToLower(strings.TrimSpace(raw)); name {
	case "warning":
		return slog.LevelWarn
	case "debug", "info", "warn", "error":
		_ = level.UnmarshalText([]byte(name))
		return level
	default:
		return slog.LevelInfo
	}
}

// resolveLogPath places the log under $XDG_STATE_HOME/dictum, falling back
// to ~/.local/state/dictum.
func resolveLogPath() (string, error) {
	state := strings.TrimSpace(os.Getenv("XDG_STATE_HOME"))
	if state == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve log path: %w", err)
		}
		state = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(state, "dictum", fileName), nil
}
