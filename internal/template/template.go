// Package template loads macro templates and enumerates their placeholders.
package template

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrNotFound indicates no template is registered under a macro key.
	ErrNotFound = errors.New("macro not found")
	// ErrDuplicateKey indicates two definitions share a normalized macro key.
	ErrDuplicateKey = errors.New("duplicate macro key")
	// ErrInvalidPlaceholder indicates malformed {placeholder} markup.
	ErrInvalidPlaceholder = errors.New("invalid placeholder")
)

// Template is one immutable macro definition.
type Template struct {
	Key          string
	Text         string
	Placeholders []string
}

// HasPlaceholder reports whether name is one of the template's fields.
func (t Template) HasPlaceholder(name string) bool {
	for _, p := range t.Placeholders {
		if p == name {
			return true
		}
	}
	return false
}

// Expand renders the template text, substituting each placeholder for which
// lookup returns ok. Other placeholders stay as literal {name} markers.
func (t Template) Expand(lookup func(name string) (string, bool)) string {
	var out strings.Builder
	out.Grow(len(t.Text))

	rest := t.Text
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			out.WriteString(rest)
			break
		}
		closeIdx := strings.IndexByte(rest[open:], '}')
		if closeIdx < 0 {
			out.WriteString(rest)
			break
		}
		closeIdx += open

		out.WriteString(rest[:open])
		name := rest[open+1 : closeIdx]
		if value, ok := lookup(name); ok {
			out.WriteString(value)
		} else {
			out.WriteString(rest[open : closeIdx+1])
		}
		rest = rest[closeIdx+1:]
	}
	return out.String()
}

// NormalizeKey canonicalizes a spoken or configured macro name: lowercase,
// with any run of whitespace or underscores collapsed to one underscore.
func NormalizeKey(name string) string {
	parts := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return unicode.IsSpace(r) || r == '_'
	})
	return strings.Join(parts, "_")
}

// ExtractPlaceholders returns the distinct {placeholder} names in text in
// first-occurrence order. Nested, unmatched, unterminated, or empty braces
// are errors.
func ExtractPlaceholders(text string) ([]string, error) {
	var names []string
	seen := make(map[string]struct{})

	start := -1
	for i, r := range text {
		switch r {
		case '{':
			if start >= 0 {
				return nil, fmt.Errorf("%w: nested '{' at offset %d", ErrInvalidPlaceholder, i)
			}
			start = i
		case '}':
			if start < 0 {
				return nil, fmt.Errorf("%w: unmatched '}' at offset %d", ErrInvalidPlaceholder, i)
			}
			name := text[start+1 : i]
			start = -1
			if strings.TrimSpace(name) == "" {
				return nil, fmt.Errorf("%w: empty placeholder at offset %d", ErrInvalidPlaceholder, i-1)
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	if start >= 0 {
		return nil, fmt.Errorf("%w: unterminated '{' at offset %d", ErrInvalidPlaceholder, start)
	}
	return names, nil
}

// ConfigError reports a template definition problem that must abort startup.
type ConfigError struct {
	Path string
	Key  string
	Err  error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Key != "" && e.Path != "":
		return fmt.Sprintf("template config %q: macro %q: %v", e.Path, e.Key, e.Err)
	case e.Key != "":
		return fmt.Sprintf("template config: macro %q: %v", e.Key, e.Err)
	case e.Path != "":
		return fmt.Sprintf("template config %q: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("template config: %v", e.Err)
	}
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
