// Package config resolves, parses, validates, and defaults dictum configuration.
package config

// Config is the fully materialized runtime configuration used by dictum.
type Config struct {
	Templates    TemplatesConfig
	History      HistoryConfig
	Speech       SpeechConfig
	Extraction   ExtractionConfig
	Audio        AudioConfig
	Paste        PasteConfig
	Indicator    IndicatorConfig
	Clipboard    CommandConfig
	PasteCmd     CommandConfig
	UndoPasteCmd CommandConfig
	Log          LogConfig
	Debug        DebugConfig
}

// TemplatesConfig locates the template definition file.
type TemplatesConfig struct {
	Path     string
	AutoDate bool
}

// HistoryConfig bounds the per-session undo history.
type HistoryConfig struct {
	Limit int
}

// SpeechConfig points at an OpenAI-compatible transcription endpoint.
type SpeechConfig struct {
	BaseURL             string
	APIKeyEnv           string
	Model               string
	Language            string
	TimeoutMS           int
	CapitalizeSentences bool
}

// ExtractionConfig selects the primary field extractor and fallback tuning.
type ExtractionConfig struct {
	Backend            string
	GRPC               string
	BaseURL            string
	APIKeyEnv          string
	Model              string
	TimeoutMS          int
	FallbackConfidence float64
	Synonyms           map[string][]string
}

// Extraction backends.
const (
	BackendGRPC   = "grpc"
	BackendOpenAI = "openai"
	BackendNone   = "none"
)

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// PasteConfig controls paste and undo-paste shortcuts.
type PasteConfig struct {
	Enable       bool
	Shortcut     string
	UndoShortcut string
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable            bool
	Backend           string
	DesktopAppName    string
	SoundEnable       bool
	SoundStartFile    string
	SoundStopFile     string
	SoundCompleteFile string
	SoundCancelFile   string
	SoundErrorFile    string
	ErrorTimeoutMS    int
	OutcomeTimeoutMS  int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// LogConfig controls the rotating JSONL log file.
type LogConfig struct {
	Path       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
