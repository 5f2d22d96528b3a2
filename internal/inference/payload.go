// Package inference talks to the remote extraction and speech services.
package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rbright/dictum/internal/extract"
)

// ParseFields decodes a {"fields": {name: {value, confidence}}} payload. A
// bare string value is accepted with confidence 1.0.
func ParseFields(payload map[string]any) (map[string]extract.Candidate, error) {
	raw, ok := payload["fields"]
	if !ok {
		return nil, fmt.Errorf("extraction response has no \"fields\" object")
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("extraction response \"fields\" is %T, want object", raw)
	}

	out := make(map[string]extract.Candidate, len(fields))
	for name, v := range fields {
		switch value := v.(type) {
		case string:
			out[name] = extract.Candidate{Value: value, Confidence: 1.0}
		case map[string]any:
			c := extract.Candidate{Value: stringify(value["value"])}
			conf, err := number(value["confidence"])
			if err != nil {
				return nil, fmt.Errorf("field %q confidence: %w", name, err)
			}
			c.Confidence = conf
			out[name] = c
		case nil:
		default:
			return nil, fmt.Errorf("field %q has unsupported value %T", name, v)
		}
	}
	return out, nil
}

// ParseFieldsJSON decodes the same payload from JSON text, tolerating a
// fenced code block around it.
func ParseFieldsJSON(text string) (map[string]extract.Candidate, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &payload); err != nil {
		return nil, fmt.Errorf("decode extraction JSON: %w", err)
	}
	return ParseFields(payload)
}

func stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}

var errNotFinite = errors.New("not a finite number")

func number(v any) (float64, error) {
	var n float64
	switch value := v.(type) {
	case nil:
		return 0, nil
	case float64:
		n = value
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%v: %w", v, errNotFinite)
	}
	return n, nil
}
