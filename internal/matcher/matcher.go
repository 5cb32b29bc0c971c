// Package matcher wraps the external face matcher behind a fail-closed
// adapter. The matching algorithm itself is replaceable; the adapter's job is
// to guarantee that a face the matcher cannot resolve still flows downstream
// as "unknown" instead of being dropped.
package matcher

import (
	"context"
	"log/slog"
)

// LabelUnknown is the label for a face no enrolled identity matched.
const LabelUnknown = "unknown"

// Result is the matcher's verdict for one embedding.
type Result struct {
	// Label is the matched identity ID string, or LabelUnknown.
	Label string
	// Distance is the embedding distance to the matched identity; lower is
	// closer. Zero for unresolved faces.
	Distance float64
}

// Unknown reports whether the result resolved no identity.
func (r Result) Unknown() bool { return r.Label == LabelUnknown }

// Matcher resolves a face embedding to an enrolled identity label.
type Matcher interface {
	Match(ctx context.Context, embedding []float32) (Result, error)
}

// Adapter wraps a Matcher fail-closed: any matcher error or empty embedding
// degrades to an unknown result with distance 0. An unresolved face is a
// security event, never a silent drop, so errors are logged and swallowed.
type Adapter struct {
	matcher   Matcher
	logger    *slog.Logger
	onFailure func()
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithFailureHook registers a callback invoked once per degraded match.
func WithFailureHook(fn func()) AdapterOption {
	return func(a *Adapter) { a.onFailure = fn }
}

// NewAdapter constructs a fail-closed adapter around a matcher.
func NewAdapter(matcher Matcher, logger *slog.Logger, opts ...AdapterOption) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{matcher: matcher, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Match resolves an embedding, degrading every failure mode to unknown.
func (a *Adapter) Match(ctx context.Context, embedding []float32) Result {
	if a.matcher == nil || len(embedding) == 0 {
		return Result{Label: LabelUnknown}
	}
	result, err := a.matcher.Match(ctx, embedding)
	if err != nil {
		a.logger.WarnContext(ctx, "matcher failed, treating face as unknown", "error", err)
		if a.onFailure != nil {
			a.onFailure()
		}
		return Result{Label: LabelUnknown}
	}
	if result.Label == "" {
		return Result{Label: LabelUnknown}
	}
	return result
}
