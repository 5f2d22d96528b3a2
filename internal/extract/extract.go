// Package extract resolves template fields from free dictation by merging an
// unreliable primary extractor with a deterministic cue-phrase fallback.
package extract

import (
	"context"
	"errors"

	"github.com/rbright/dictum/internal/document"
)

// ErrExtractionFailure means neither extractor resolved any field.
var ErrExtractionFailure = errors.New("extraction failure")

// Request is one resolution job.
type Request struct {
	Text     string
	Fields   []string
	MacroKey string
}

// Candidate is a primary extractor's raw answer for one field.
type Candidate struct {
	Value      string
	Confidence float64
}

// Primary is the opaque AI extraction collaborator.
type Primary interface {
	Extract(ctx context.Context, req Request) (map[string]Candidate, error)
}

// PrimaryFunc adapts a function to Primary.
type PrimaryFunc func(ctx context.Context, req Request) (map[string]Candidate, error)

func (f PrimaryFunc) Extract(ctx context.Context, req Request) (map[string]Candidate, error) {
	return f(ctx, req)
}

// Resolution is the merged answer for one field.
type Resolution struct {
	Value      string
	Confidence float64
	Provenance document.Provenance
}

// Tier buckets a confidence for review highlighting.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

const (
	HighThreshold   = 0.8
	MediumThreshold = 0.6
)

// TierFor maps a confidence to its tier. Boundaries are inclusive-low.
func TierFor(confidence float64) Tier {
	switch {
	case confidence >= HighThreshold:
		return TierHigh
	case confidence >= MediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}
