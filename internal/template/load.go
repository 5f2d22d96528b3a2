package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rbright/dictum/internal/jsonc"
	"gopkg.in/yaml.v3"
)

// Load reads a template definition file. The format follows the extension:
// .json/.jsonc, .yaml/.yml, or .toml. Every failure is a *ConfigError.
func Load(path string) (*Set, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("read templates: %w", err)}
	}

	entries, err := Parse(string(content), formatFor(path))
	if err != nil {
		return nil, withPath(err, path)
	}

	set, err := NewSet(entries)
	if err != nil {
		return nil, withPath(err, path)
	}
	return set, nil
}

// Format names a template source encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// Parse decodes raw definitions in document order. Duplicate raw keys are
// rejected for every format.
func Parse(content string, format Format) ([]Entry, error) {
	switch format {
	case FormatYAML:
		return parseYAML(content)
	case FormatTOML:
		return parseTOML(content)
	case FormatJSON:
		return parseJSON(content)
	default:
		return nil, &ConfigError{Err: fmt.Errorf("unsupported template format %q", format)}
	}
}

func parseJSON(content string) ([]Entry, error) {
	normalized, err := jsonc.Normalize(content)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	if err := expectDelim(decoder, '{'); err != nil {
		return nil, &ConfigError{Err: jsonc.WithPosition(normalized, err)}
	}

	var entries []Entry
	seen := make(map[string]struct{})
	for decoder.More() {
		tok, err := decoder.Token()
		if err != nil {
			return nil, &ConfigError{Err: jsonc.WithPosition(normalized, err)}
		}
		key, _ := tok.(string)
		if _, dup := seen[key]; dup {
			return nil, &ConfigError{Key: key, Err: fmt.Errorf("%w: defined more than once", ErrDuplicateKey)}
		}
		seen[key] = struct{}{}

		var text string
		if err := decoder.Decode(&text); err != nil {
			return nil, &ConfigError{Key: key, Err: jsonc.WithPosition(normalized, fmt.Errorf("template text must be a string: %w", err))}
		}
		entries = append(entries, Entry{Key: key, Text: text})
	}

	if err := expectDelim(decoder, '}'); err != nil {
		return nil, &ConfigError{Err: jsonc.WithPosition(normalized, err)}
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, &ConfigError{Err: errors.New("multiple JSON values are not allowed")}
	}
	return entries, nil
}

func expectDelim(decoder *json.Decoder, want json.Delim) error {
	tok, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func parseYAML(content string) ([]Entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("decode yaml: %w", err)}
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, &ConfigError{Err: errors.New("yaml templates must be a mapping of macro key to template text")}
	}

	mapping := doc.Content[0]
	entries := make([]Entry, 0, len(mapping.Content)/2)
	seen := make(map[string]struct{})
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode, valueNode := mapping.Content[i], mapping.Content[i+1]
		key := keyNode.Value
		if _, dup := seen[key]; dup {
			return nil, &ConfigError{Key: key, Err: fmt.Errorf("%w: defined more than once (line %d)", ErrDuplicateKey, keyNode.Line)}
		}
		seen[key] = struct{}{}

		if valueNode.Kind != yaml.ScalarNode {
			return nil, &ConfigError{Key: key, Err: fmt.Errorf("template text must be a string (line %d)", valueNode.Line)}
		}
		entries = append(entries, Entry{Key: key, Text: valueNode.Value})
	}
	return entries, nil
}

func parseTOML(content string) ([]Entry, error) {
	var raw map[string]string
	meta, err := toml.Decode(content, &raw)
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("decode toml: %w", err)}
	}

	entries := make([]Entry, 0, len(raw))
	for _, key := range meta.Keys() {
		if len(key) != 1 {
			continue
		}
		name := key[0]
		entries = append(entries, Entry{Key: name, Text: raw[name]})
	}
	return entries, nil
}

func withPath(err error, path string) error {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		if cfgErr.Path == "" {
			cfgErr.Path = path
		}
		return cfgErr
	}
	return &ConfigError{Path: path, Err: err}
}
