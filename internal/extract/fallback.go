package extract

import (
	"regexp"
	"strings"

	"github.com/rbright/dictum/internal/document"
)

// DefaultFallbackConfidence sits below the medium tier so fallback values
// are always flagged for review.
const DefaultFallbackConfidence = 0.5

// Fallback finds "<synonym> is|to|of <value>" cues in dictation.
type Fallback struct {
	confidence float64
	synonyms   map[string][]string
}

// NewFallback returns a Fallback scoring every match at confidence.
// synonyms maps a field name to extra spoken names for it.
func NewFallback(confidence float64, synonyms map[string][]string) *Fallback {
	if confidence <= 0 || confidence >= MediumThreshold {
		confidence = DefaultFallbackConfidence
	}
	return &Fallback{confidence: confidence, synonyms: synonyms}
}

// Confidence returns the fixed score given to fallback matches.
func (f *Fallback) Confidence() float64 {
	return f.confidence
}

// Extract resolves each field from its first cue in text. Fields with no
// cue are absent from the result.
func (f *Fallback) Extract(text string, fields []string) map[string]Resolution {
	out := make(map[string]Resolution)
	if strings.TrimSpace(text) == "" {
		return out
	}
	for _, field := range fields {
		re := f.pattern(field)
		if re == nil {
			continue
		}
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(m[1]), ".,!?;:"))
		if value == "" {
			continue
		}
		out[field] = Resolution{
			Value:      value,
			Confidence: f.confidence,
			Provenance: document.ProvenanceFallback,
		}
	}
	return out
}

func (f *Fallback) pattern(field string) *regexp.Regexp {
	names := append([]string{field}, f.synonyms[field]...)

	alternatives := make([]string, 0, len(names))
	for _, name := range names {
		words := strings.Fields(strings.ReplaceAll(name, "_", " "))
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		alternatives = append(alternatives, strings.Join(words, `\s+`))
	}
	if len(alternatives) == 0 {
		return nil
	}

	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(alternatives, "|") + `)\s+(?:is|to|of)\s+(.+?)\s*(?:[.!?;](?:\s|$)|\n|$)`)
}
