// Package transcript assembles recognized speech segments into one utterance.
package transcript

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Segment is one timed piece of recognized speech.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Options controls transcript assembly formatting behavior.
type Options struct {
	CapitalizeSentences bool
}

var pronounI = regexp.MustCompile(`\bi\b('(m|d|ll|ve|re|s)\b)?`)

// Assemble joins segments in time order, dropping empty and repeated
// segments, and collapses whitespace.
func Assemble(segments []Segment, opts Options) string {
	parts := make([]string, 0, len(segments))
	var lastEnd time.Duration
	var last string
	for _, seg := range segments {
		text := strings.Join(strings.Fields(seg.Text), " ")
		if text == "" {
			continue
		}
		// some recognizers re-emit the previous segment when windows overlap
		if text == last && seg.Start < lastEnd {
			continue
		}
		parts = append(parts, text)
		last, lastEnd = text, seg.End
	}

	joined := strings.Join(parts, " ")
	if joined == "" {
		return ""
	}
	if opts.CapitalizeSentences {
		joined = capitalize(joined)
	}
	return joined
}

// Join assembles plain text fragments.
func Join(fragments []string, opts Options) string {
	segments := make([]Segment, len(fragments))
	for i, f := range fragments {
		segments[i] = Segment{Text: f}
	}
	return Assemble(segments, opts)
}

// capitalize upper-cases sentence starts and the standalone pronoun "i".
// A sentence starts at the beginning of text or after . ! ? and whitespace,
// which leaves decimals such as 38.5 alone.
func capitalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	start := true
	for i, r := range text {
		if start && unicode.IsLetter(r) {
			r = unicode.ToUpper(r)
			start = false
		} else if unicode.IsLetter(r) || unicode.IsDigit(r) {
			start = false
		}
		b.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			next, _ := utf8.DecodeRuneInString(text[i+utf8.RuneLen(r):])
			start = next == utf8.RuneError || unicode.IsSpace(next)
		}
	}

	return pronounI.ReplaceAllStringFunc(b.String(), func(m string) string {
		return "I" + m[1:]
	})
}
