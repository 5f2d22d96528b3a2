package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded is a resolved configuration ready for the runtime.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	// Exists is false when Path was missing and defaults were used.
	Exists bool
}

// Load reads the config at explicitPath, $DICTUM_CONFIG, or the XDG default.
// A missing file yields defaults plus a warning. templates.path ends up
// absolute, anchored at the config file's directory.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	loaded := Loaded{Path: path, Config: Default(), Exists: true}
	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		loaded.Exists = false
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", path),
		})
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	default:
		cfg, warnings, err := Parse(string(content), loaded.Config)
		if err != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
		}
		loaded.Config = cfg
		loaded.Warnings = warnings
	}

	loaded.Config.Templates.Path = resolveTemplatesPath(path, loaded.Config.Templates.Path)
	return loaded, nil
}
