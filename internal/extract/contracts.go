// Package extract is the boundary to the OCR/LLM collaborators. Its output is an
// untrusted, partially-unreliable field map; the normalize package owns making
// sense of it.
package extract

import (
	"context"

	"github.com/nfse-labs/nfse-tracker/internal/entity"
)

// RawResult is the untyped field map produced by a strategy. Shape varies by
// strategy and by model mood; downstream code must not assume anything about it.
type RawResult map[string]any

// Empty reports whether the result carries nothing usable.
func (r RawResult) Empty() bool {
	return len(r) == 0
}

// Strategy is one way of turning a document into a raw field map. Strategies are
// best-effort: an empty result and a nil error means "nothing extracted, try the
// next one".
type Strategy interface {
	Name() string
	Extract(ctx context.Context, doc entity.SourceDocument) (RawResult, error)
}

// Extractor is the interface the pipeline depends on.
type Extractor interface {
	Extract(ctx context.Context, doc entity.SourceDocument) (RawResult, error)
}
