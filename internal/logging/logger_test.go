package logging

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveLogPath(t *testing.T) {
	t.Run("xdg state home", func(t *testing.T) {
		state := t.TempDir()
		t.Setenv("XDG_STATE_HOME", state)

		path, err := resolveLogPath()
		require.NoError(t, err)
		require.Equal(t, filepath.Join(state, "dictum", "log.jsonl"), path)
	})

	t.Run("home fallback", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("XDG_STATE_HOME", "  ")
		t.Setenv("HOME", home)

		path, err := resolveLogPath()
		require.NoError(t, err)
		require.Equal(t, filepath.Join(home, ".local", "state", "dictum", "log.jsonl"), path)
	})
}

func TestNewWritesJSONLinesAtInfo(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	rt, err := New(Options{MaxSizeMB: 1})
	require.NoError(t, err)
	rt.Logger.Info("outcome", "command", "set_field", "duration", 1500*time.Millisecond)
	rt.Logger.Debug("hidden")
	require.NoError(t, rt.Close())

	records := readRecords(t, rt.Path)
	require.Len(t, records, 1)
	require.Equal(t, "outcome", records[0]["msg"])
	require.Equal(t, "set_field", records[0]["command"])
	require.Equal(t, "1.5s", records[0]["duration"])
	require.EqualValues(t, os.Getpid(), records[0]["pid"])

	stat, err := os.Stat(rt.Path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), stat.Mode().Perm())
}

func TestNewCreatesExplicitPathWithDebugLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "owner.jsonl")

	rt, err := New(Options{Path: path, Level: "debug", MaxSizeMB: 1})
	require.NoError(t, err)
	require.Equal(t, path, rt.Path)
	rt.Logger.Debug("visible")
	require.NoError(t, rt.Close())

	require.Len(t, readRecords(t, path), 1)
}

func TestParseLevel(t *testing.T) {
	for raw, want := range map[string]slog.Level{
		" DEBUG ": slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	} {
		require.Equal(t, want, ParseLevel(raw), raw)
	}
}

func readRecords(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	return records
}
