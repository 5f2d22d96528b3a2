package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/rbright/dictum/internal/document"
)

// DefaultTimeout bounds one primary extraction call.
const DefaultTimeout = 8 * time.Second

// Result is the merged field mapping plus the primary extractor's error, if
// it failed and the fallback was used alone.
type Result struct {
	Fields     map[string]Resolution
	PrimaryErr error
}

// Resolver merges primary and fallback extraction.
type Resolver struct {
	primary  Primary
	fallback *Fallback
	timeout  time.Duration
	logger   *slog.Logger
}

type Option func(*Resolver)

func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver builds a Resolver. primary may be nil to run the fallback only.
func NewResolver(primary Primary, fallback *Fallback, opts ...Option) *Resolver {
	if fallback == nil {
		fallback = NewFallback(DefaultFallbackConfidence, nil)
	}
	r := &Resolver{
		primary:  primary,
		fallback: fallback,
		timeout:  DefaultTimeout,
		logger:   slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fills req.Fields from req.Text. A single-field miss is not an
// error; ErrExtractionFailure is returned only when fields were requested
// and none resolved.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	result := Result{Fields: make(map[string]Resolution, len(req.Fields))}
	if len(req.Fields) == 0 {
		return result, nil
	}

	wanted := make(map[string]struct{}, len(req.Fields))
	for _, f := range req.Fields {
		wanted[f] = struct{}{}
	}

	if r.primary != nil {
		candidates, err := r.callPrimary(ctx, req)
		if err != nil {
			result.PrimaryErr = err
			r.logger.Warn("primary extraction failed; using fallback", "macro", req.MacroKey, "error", err.Error())
		}
		for name, c := range candidates {
			if _, ok := wanted[name]; !ok {
				continue
			}
			value := strings.TrimSpace(c.Value)
			if value == "" {
				continue
			}
			if math.IsNaN(c.Confidence) || math.IsInf(c.Confidence, 0) {
				r.logger.Warn("discarding primary field with non-finite confidence", "field", name, "confidence", fmt.Sprint(c.Confidence))
				continue
			}
			result.Fields[name] = Resolution{
				Value:      value,
				Confidence: min(max(c.Confidence, 0), 1),
				Provenance: document.ProvenanceAI,
			}
		}
	}

	var gaps []string
	for _, f := range req.Fields {
		if _, ok := result.Fields[f]; !ok {
			gaps = append(gaps, f)
		}
	}
	for name, res := range r.fallback.Extract(req.Text, gaps) {
		result.Fields[name] = res
	}

	if len(result.Fields) == 0 {
		if result.PrimaryErr != nil {
			return result, fmt.Errorf("%w: no fields could be extracted (primary: %v)", ErrExtractionFailure, result.PrimaryErr)
		}
		return result, fmt.Errorf("%w: no fields could be extracted", ErrExtractionFailure)
	}

	r.logger.Debug("fields resolved",
		"macro", req.MacroKey,
		"requested", len(req.Fields),
		"resolved", len(result.Fields),
		"fallback_only", result.PrimaryErr != nil,
	)
	return result, nil
}

func (r *Resolver) callPrimary(ctx context.Context, req Request) (map[string]Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	candidates, err := r.primary.Extract(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("primary extract: %w", err)
	}
	return candidates, nil
}
