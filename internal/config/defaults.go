package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		Templates: TemplatesConfig{AutoDate: true},
		History:   HistoryConfig{Limit: 50},
		Speech: SpeechConfig{
			APIKeyEnv:           "OPENAI_API_KEY",
			Model:               "whisper-1",
			Language:            "en",
			TimeoutMS:           30000,
			CapitalizeSentences: true,
		},
		Extraction: ExtractionConfig{
			Backend:            BackendNone,
			GRPC:               "127.0.0.1:50061",
			APIKeyEnv:          "OPENAI_API_KEY",
			Model:              "gpt-4o-mini",
			TimeoutMS:          8000,
			FallbackConfidence: 0.5,
			Synonyms:           map[string][]string{},
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Paste: PasteConfig{Enable: true, Shortcut: "CTRL,V", UndoShortcut: "CTRL,Z"},
		Indicator: IndicatorConfig{
			Enable:           true,
			Backend:          "hypr",
			DesktopAppName:   "dictum-indicator",
			SoundEnable:      true,
			ErrorTimeoutMS:   1600,
			OutcomeTimeoutMS: 1200,
		},
		Clipboard: mustParseCommand(clipboard),
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}
