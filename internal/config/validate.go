package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if cfg.History.Limit <= 0 || cfg.History.Limit > 50 {
		return nil, fmt.Errorf("history.limit must be between 1 and 50")
	}
	if strings.TrimSpace(cfg.Speech.Language) == "" {
		return nil, fmt.Errorf("speech.language must not be empty")
	}
	if cfg.Speech.TimeoutMS <= 0 {
		return nil, fmt.Errorf("speech.timeout_ms must be > 0")
	}

	switch cfg.Extraction.Backend {
	case BackendNone:
	case BackendGRPC:
		if strings.TrimSpace(cfg.Extraction.GRPC) == "" {
			return nil, fmt.Errorf("extraction.grpc must not be empty when extraction.backend=grpc")
		}
	case BackendOpenAI:
		if strings.TrimSpace(cfg.Extraction.Model) == "" {
			return nil, fmt.Errorf("extraction.model must not be empty when extraction.backend=openai")
		}
	default:
		return nil, fmt.Errorf("extraction.backend must be one of: grpc, openai, none")
	}
	if cfg.Extraction.TimeoutMS <= 0 {
		return nil, fmt.Errorf("extraction.timeout_ms must be > 0")
	}
	if c := cfg.Extraction.FallbackConfidence; c <= 0 || c >= 0.6 {
		return nil, fmt.Errorf("extraction.fallback_confidence must be > 0 and < 0.6")
	}
	for field, words := range cfg.Extraction.Synonyms {
		if len(words) == 0 {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("extraction.synonyms.%s is empty; the field name alone is used", field)})
		}
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend == "" {
		return nil, fmt.Errorf("indicator.backend must not be empty")
	}
	if backend != "hypr" && backend != "desktop" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}
	if cfg.Indicator.OutcomeTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.outcome_timeout_ms must be >= 0")
	}

	if len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd must not be empty")
	}
	if cfg.Paste.Enable && cfg.PasteCmd.Raw != "" && len(cfg.PasteCmd.Argv) == 0 {
		return nil, fmt.Errorf("paste_cmd is configured but empty")
	}
	if cfg.Paste.Enable && len(cfg.PasteCmd.Argv) == 0 && strings.TrimSpace(cfg.Paste.Shortcut) == "" {
		return nil, fmt.Errorf("paste.shortcut must not be empty when paste.enable=true and paste_cmd is unset")
	}
	if cfg.Paste.Enable && len(cfg.UndoPasteCmd.Argv) == 0 && strings.TrimSpace(cfg.Paste.UndoShortcut) == "" {
		warnings = append(warnings, Warning{Message: "paste.undo_shortcut and undo_paste_cmd are unset; undo paste will fail"})
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	if cfg.Log.MaxSizeMB <= 0 {
		return nil, fmt.Errorf("log.max_size_mb must be > 0")
	}
	if cfg.Log.MaxBackups < 0 || cfg.Log.MaxAgeDays < 0 {
		return nil, fmt.Errorf("log.max_backups and log.max_age_days must be >= 0")
	}

	return warnings, nil
}
