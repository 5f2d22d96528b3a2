package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath picks the config file: the --config value, then
// $DICTUM_CONFIG, then $XDG_CONFIG_HOME/dictum/config.jsonc, then
// ~/.config/dictum/config.jsonc.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return expandUserPath(explicit), nil
	}
	if env := strings.TrimSpace(os.Getenv("DICTUM_CONFIG")); env != "" {
		return expandUserPath(env), nil
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "dictum", "config.jsonc"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}

	return filepath.Join(home, ".config", "dictum", "config.jsonc"), nil
}

// resolveTemplatesPath defaults to templates.jsonc beside the config file and
// anchors relative paths there.
func resolveTemplatesPath(configPath string, raw string) string {
	raw = expandUserPath(raw)
	if raw == "" {
		return filepath.Join(filepath.Dir(configPath), "templates.jsonc")
	}
	if filepath.IsAbs(raw) {
		return raw
	}
	return filepath.Join(filepath.Dir(configPath), raw)
}

func expandUserPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw != "~" && !strings.HasPrefix(raw, "~/") {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return raw
	}
	return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(raw, "~"), "/"))
}

// APIKey reads the key named by env, returning "" when env is unset.
func APIKey(env string) string {
	env = strings.TrimSpace(env)
	if env == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(env))
}
