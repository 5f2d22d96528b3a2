package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/dictum/internal/audio"
)

// resolveStateDir returns $XDG_STATE_HOME or ~/.local/state.
func resolveStateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state"), nil
}

// createDebugFile opens a fresh, owner-only artifact under
// <state>/dictum/debug named <prefix>-<timestamp>.<ext>.
func createDebugFile(prefix, ext string) (*os.File, error) {
	state, err := resolveStateDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(state, "dictum", "debug")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s.%s", prefix, time.Now().Format("20060102-150405.000"), ext)
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open debug file %q: %w", path, err)
	}
	return file, nil
}

// writeDebugAudio keeps a copy of the utterance when debug.audio_dump is on.
// Failures are logged and never interrupt dictation.
func (t *Transcriber) writeDebugAudio(pcm []byte) {
	if !t.cfg.Debug.EnableAudioDump || len(pcm) == 0 {
		return
	}

	file, err := createDebugFile("audio", "wav")
	if err != nil {
		t.warn("debug audio dump unavailable", "error", err)
		return
	}
	defer file.Close()

	if err := writePCM16WAV(file, pcm, audio.SampleRate, 1); err != nil {
		t.warn("debug audio dump failed", "path", file.Name(), "error", err)
		return
	}
	if t.logger != nil {
		t.logger.Debug("wrote debug audio", "path", file.Name(), "bytes", len(pcm))
	}
}
