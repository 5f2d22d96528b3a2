// Package jsonc decodes JSON with comments and trailing commas.
package jsonc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Normalize removes // and /* */ comments plus trailing commas so the result
// is plain JSON. Byte offsets of the remaining content are preserved, which
// keeps decoder error positions meaningful.
func Normalize(content string) (string, error) {
	stripped, err := stripComments(content)
	if err != nil {
		return "", err
	}
	return stripTrailingCommas(stripped), nil
}

// Decode normalizes content and strictly decodes it into v: unknown fields
// and trailing JSON values are rejected, and syntax errors carry line/column.
func Decode(content string, v any) error {
	normalized, err := Normalize(content)
	if err != nil {
		return err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return WithPosition(normalized, err)
	}
	if err := ensureSingleValue(decoder); err != nil {
		return WithPosition(normalized, err)
	}
	return nil
}

// WithPosition annotates JSON syntax and type errors with line/column context.
func WithPosition(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := LineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := LineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}
	return err
}

// LineCol converts a decoder byte offset into a 1-based line and column.
func LineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}
	limit := min(int(offset), len(content))

	line, col := 1, 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

type scanMode int

const (
	modeCode scanMode = iota
	modeString
	modeLineComment
	modeBlockComment
)

func stripComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	mode := modeCode
	escaped := false
	for i := 0; i < len(content); i++ {
		ch := content[i]
		switch mode {
		case modeString:
			out.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				mode = modeCode
			}
		case modeLineComment:
			if ch == '\n' || ch == '\r' {
				mode = modeCode
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
		case modeBlockComment:
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				mode = modeCode
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
		default:
			if ch == '"' {
				mode = modeString
				out.WriteByte(ch)
				continue
			}
			if ch == '/' && i+1 < len(content) && (content[i+1] == '/' || content[i+1] == '*') {
				if content[i+1] == '/' {
					mode = modeLineComment
				} else {
					mode = modeBlockComment
				}
				out.WriteString("  ")
				i++
				continue
			}
			out.WriteByte(ch)
		}
	}

	if mode == modeBlockComment {
		return "", errors.New("unterminated block comment in JSONC")
	}
	return out.String(), nil
}

func stripTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escaped := false
	for i := 0; i < len(content); i++ {
		ch := content[i]
		if inString {
			out.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case ',':
			if closesAfter(content, i+1) {
				// Keep offsets stable for error positions.
				out.WriteByte(' ')
				continue
			}
		}
		out.WriteByte(ch)
	}
	return out.String()
}

// closesAfter reports whether the next non-whitespace byte closes an object or array.
func closesAfter(content string, from int) bool {
	for j := from; j < len(content); j++ {
		switch content[j] {
		case ' ', '\n', '\r', '\t':
			continue
		case '}', ']':
			return true
		default:
			return false
		}
	}
	return false
}

func ensureSingleValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return errors.New("multiple JSON values are not allowed")
	}
	return err
}
