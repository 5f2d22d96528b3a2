package command

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for a candidate
// whose Double Metaphone codes overlap the spoken phrase.
func WithPhoneticThreshold(threshold float64) MatcherOption {
	return func(m *Matcher) {
		m.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score for a candidate
// with no phonetic overlap.
func WithFuzzyThreshold(threshold float64) MatcherOption {
	return func(m *Matcher) {
		m.fuzzyThreshold = threshold
	}
}

// Matcher resolves misheard field names against the placeholders of the
// active macro. It is read-only after construction.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// NewMatcher returns a Matcher with default thresholds of 0.70 (phonetic)
// and 0.85 (fuzzy).
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match returns the candidate that best matches spoken. Phonetic candidates
// always win over purely fuzzy ones.
func (m *Matcher) Match(spoken string, candidates []string) (string, float64, bool) {
	spokenLower := strings.ToLower(strings.TrimSpace(spoken))
	if len(candidates) == 0 || spokenLower == "" {
		return "", 0, false
	}
	spokenTokens := strings.Fields(spokenLower)
	spokenCodes := metaphoneCodes(spokenTokens)

	var (
		best         string
		bestScore    float64
		bestPhonetic bool
	)
	for _, candidate := range candidates {
		candidateLower := strings.ToLower(strings.TrimSpace(candidate))
		if candidateLower == "" {
			continue
		}
		candidateTokens := strings.Fields(candidateLower)
		phonetic := overlaps(spokenCodes, metaphoneCodes(candidateTokens))
		score := similarity(spokenTokens, candidateTokens, spokenLower, candidateLower)

		switch {
		case phonetic && score >= m.phoneticThreshold:
			if !bestPhonetic || score > bestScore {
				best, bestScore, bestPhonetic = candidate, score, true
			}
		case !phonetic && !bestPhonetic && score >= m.fuzzyThreshold && score > bestScore:
			best, bestScore = candidate, score
		}
	}

	if best == "" {
		return "", 0, false
	}
	return best, bestScore, true
}

func metaphoneCodes(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, token := range tokens {
		primary, secondary := matchr.DoubleMetaphone(token)
		if primary != "" {
			codes[primary] = struct{}{}
		}
		if secondary != "" {
			codes[secondary] = struct{}{}
		}
	}
	return codes
}

func overlaps(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// similarity is the best Jaro-Winkler score over the full phrases, the
// phrases with spaces removed, and every token pair.
func similarity(spokenTokens, candidateTokens []string, spoken, candidate string) float64 {
	score := matchr.JaroWinkler(spoken, candidate, false)

	if len(spokenTokens) > 1 || len(candidateTokens) > 1 {
		joined := matchr.JaroWinkler(strings.Join(spokenTokens, ""), strings.Join(candidateTokens, ""), false)
		if joined > score {
			score = joined
		}
	}

	for _, st := range spokenTokens {
		for _, ct := range candidateTokens {
			if s := matchr.JaroWinkler(st, ct, false); s > score {
				score = s
			}
		}
	}
	return score
}
