package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/nfse-labs/nfse-tracker/internal/entity"
)

// Chain tries an ordered list of strategies until one yields a non-empty result.
// The fallback order (vision LLM, then text extraction) lives in the caller's
// wiring, not here; the chain itself has no idea how many layers exist.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

func NewChain(logger *slog.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{strategies: strategies, logger: logger}
}

// Extract runs the strategies in order. Per-strategy failures are recorded and
// swallowed; only context cancellation aborts early. An empty result from every
// strategy is reported as an empty RawResult with a nil error, which the
// coordinator classifies as an extraction failure for that file.
func (c *Chain) Extract(ctx context.Context, doc entity.SourceDocument) (RawResult, error) {
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		res, err := s.Extract(ctx, doc)
		elapsed := time.Since(start).Milliseconds()
		if err != nil {
			c.logger.Warn("extract.strategy_failed",
				"strategy", s.Name(), "file", doc.Filename, "elapsed_ms", elapsed, "error", err)
			continue
		}
		if res.Empty() {
			c.logger.Info("extract.strategy_empty",
				"strategy", s.Name(), "file", doc.Filename, "elapsed_ms", elapsed)
			continue
		}
		c.logger.Info("extract.ok",
			"strategy", s.Name(), "file", doc.Filename, "fields", len(res), "elapsed_ms", elapsed)
		return res, nil
	}
	return RawResult{}, nil
}
