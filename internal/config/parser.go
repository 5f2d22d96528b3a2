package config

import (
	"fmt"
	"strings"

	"github.com/rbright/dictum/internal/jsonc"
)

type fileConfig struct {
	Templates  *fileTemplates  `json:"templates"`
	History    *fileHistory    `json:"history"`
	Speech     *fileSpeech     `json:"speech"`
	Extraction *fileExtraction `json:"extraction"`
	Audio      *fileAudio      `json:"audio"`
	Paste      *filePaste      `json:"paste"`
	Indicator  *fileIndicator  `json:"indicator"`

	ClipboardCmd *string   `json:"clipboard_cmd"`
	PasteCmd     *string   `json:"paste_cmd"`
	UndoPasteCmd *string   `json:"undo_paste_cmd"`
	Log          *fileLog   `json:"log"`
	Debug        *fileDebug `json:"debug"`
}

type fileTemplates struct {
	Path     *string `json:"path"`
	AutoDate *bool   `json:"auto_date"`
}

type fileHistory struct {
	Limit *int `json:"limit"`
}

type fileSpeech struct {
	BaseURL             *string `json:"base_url"`
	APIKeyEnv           *string `json:"api_key_env"`
	Model               *string `json:"model"`
	Language            *string `json:"language"`
	TimeoutMS           *int    `json:"timeout_ms"`
	CapitalizeSentences *bool   `json:"capitalize_sentences"`
}

type fileExtraction struct {
	Backend            *string             `json:"backend"`
	GRPC               *string             `json:"grpc"`
	BaseURL            *string             `json:"base_url"`
	APIKeyEnv          *string             `json:"api_key_env"`
	Model              *string             `json:"model"`
	TimeoutMS          *int                `json:"timeout_ms"`
	FallbackConfidence *float64            `json:"fallback_confidence"`
	Synonyms           map[string][]string `json:"synonyms"`
}

type fileAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type filePaste struct {
	Enable       *bool   `json:"enable"`
	Shortcut     *string `json:"shortcut"`
	UndoShortcut *string `json:"undo_shortcut"`
}

type fileIndicator struct {
	Enable            *bool   `json:"enable"`
	Backend           *string `json:"backend"`
	DesktopAppName    *string `json:"desktop_app_name"`
	SoundEnable       *bool   `json:"sound_enable"`
	SoundStartFile    *string `json:"sound_start_file"`
	SoundStopFile     *string `json:"sound_stop_file"`
	SoundCompleteFile *string `json:"sound_complete_file"`
	SoundCancelFile   *string `json:"sound_cancel_file"`
	SoundErrorFile    *string `json:"sound_error_file"`
	ErrorTimeoutMS    *int    `json:"error_timeout_ms"`
	OutcomeTimeoutMS  *int    `json:"outcome_timeout_ms"`
}

type fileLog struct {
	Path       *string `json:"path"`
	Level      *string `json:"level"`
	MaxSizeMB  *int    `json:"max_size_mb"`
	MaxBackups *int    `json:"max_backups"`
	MaxAgeDays *int    `json:"max_age_days"`
}

type fileDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

// Parse decodes JSONC content over base, then validates the result. Unknown
// keys are rejected and syntax errors carry line/column context.
func Parse(content string, base Config) (Config, []Warning, error) {
	cfg := base
	if strings.TrimSpace(content) != "" {
		var payload fileConfig
		if err := jsonc.Decode(content, &payload); err != nil {
			return Config{}, nil, err
		}
		if err := payload.applyTo(&cfg); err != nil {
			return Config{}, nil, err
		}
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload fileConfig) applyTo(cfg *Config) error {
	if t := payload.Templates; t != nil {
		setString(&cfg.Templates.Path, t.Path)
		setBool(&cfg.Templates.AutoDate, t.AutoDate)
	}

	if h := payload.History; h != nil {
		setInt(&cfg.History.Limit, h.Limit)
	}

	if s := payload.Speech; s != nil {
		setString(&cfg.Speech.BaseURL, s.BaseURL)
		setString(&cfg.Speech.APIKeyEnv, s.APIKeyEnv)
		setString(&cfg.Speech.Model, s.Model)
		setString(&cfg.Speech.Language, s.Language)
		setInt(&cfg.Speech.TimeoutMS, s.TimeoutMS)
		setBool(&cfg.Speech.CapitalizeSentences, s.CapitalizeSentences)
	}

	if e := payload.Extraction; e != nil {
		if e.Backend != nil {
			cfg.Extraction.Backend = strings.ToLower(strings.TrimSpace(*e.Backend))
		}
		setString(&cfg.Extraction.GRPC, e.GRPC)
		setString(&cfg.Extraction.BaseURL, e.BaseURL)
		setString(&cfg.Extraction.APIKeyEnv, e.APIKeyEnv)
		setString(&cfg.Extraction.Model, e.Model)
		setInt(&cfg.Extraction.TimeoutMS, e.TimeoutMS)
		if e.FallbackConfidence != nil {
			cfg.Extraction.FallbackConfidence = *e.FallbackConfidence
		}
		if e.Synonyms != nil {
			synonyms := make(map[string][]string, len(e.Synonyms))
			for field, words := range e.Synonyms {
				field = strings.TrimSpace(field)
				if field == "" {
					return fmt.Errorf("extraction.synonyms contains an empty field name")
				}
				synonyms[field] = append([]string(nil), words...)
			}
			cfg.Extraction.Synonyms = synonyms
		}
	}

	if a := payload.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
	}

	if p := payload.Paste; p != nil {
		setBool(&cfg.Paste.Enable, p.Enable)
		setString(&cfg.Paste.Shortcut, p.Shortcut)
		setString(&cfg.Paste.UndoShortcut, p.UndoShortcut)
	}

	if i := payload.Indicator; i != nil {
		setBool(&cfg.Indicator.Enable, i.Enable)
		setString(&cfg.Indicator.Backend, i.Backend)
		setString(&cfg.Indicator.DesktopAppName, i.DesktopAppName)
		setBool(&cfg.Indicator.SoundEnable, i.SoundEnable)
		setPath(&cfg.Indicator.SoundStartFile, i.SoundStartFile)
		setPath(&cfg.Indicator.SoundStopFile, i.SoundStopFile)
		setPath(&cfg.Indicator.SoundCompleteFile, i.SoundCompleteFile)
		setPath(&cfg.Indicator.SoundCancelFile, i.SoundCancelFile)
		setPath(&cfg.Indicator.SoundErrorFile, i.SoundErrorFile)
		setInt(&cfg.Indicator.ErrorTimeoutMS, i.ErrorTimeoutMS)
		setInt(&cfg.Indicator.OutcomeTimeoutMS, i.OutcomeTimeoutMS)
	}

	commands := []struct {
		name string
		raw  *string
		dst  *CommandConfig
	}{
		{"clipboard_cmd", payload.ClipboardCmd, &cfg.Clipboard},
		{"paste_cmd", payload.PasteCmd, &cfg.PasteCmd},
		{"undo_paste_cmd", payload.UndoPasteCmd, &cfg.UndoPasteCmd},
	}
	for _, c := range commands {
		if c.raw == nil {
			continue
		}
		cmd, err := ParseCommand(*c.raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", c.name, err)
		}
		*c.dst = cmd
	}

	if l := payload.Log; l != nil {
		setString(&cfg.Log.Path, l.Path)
		setString(&cfg.Log.Level, l.Level)
		setInt(&cfg.Log.MaxSizeMB, l.MaxSizeMB)
		setInt(&cfg.Log.MaxBackups, l.MaxBackups)
		setInt(&cfg.Log.MaxAgeDays, l.MaxAgeDays)
	}

	if d := payload.Debug; d != nil {
		setBool(&cfg.Debug.EnableAudioDump, d.AudioDump)
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// setPath is setString with ~ expanded to the home directory.
func setPath(dst *string, src *string) {
	if src != nil {
		*dst = expandUserPath(*src)
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
