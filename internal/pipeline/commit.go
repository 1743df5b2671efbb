package pipeline

import (
	"context"

	"github.com/nfse-labs/nfse-tracker/constants"
)

// Summary aggregates the invoices persisted by a commit.
type Summary struct {
	Persisted  int
	Failed     int
	Skipped    int
	TotalValue float64
	TotalISS   float64
	TotalTaxes float64
}

// CommitBatch upserts every STAGED outcome and rewrites its status in place.
// A failed upsert marks that outcome PERSIST_FAILED and the commit moves on;
// non-staged outcomes are counted as skipped and left untouched.
func (c *Coordinator) CommitBatch(ctx context.Context, outcomes []FileOutcome) (Summary, error) {
	var sum Summary
	for i := range outcomes {
		out := &outcomes[i]
		if out.Status != constants.FileStaged || out.Invoice == nil {
			sum.Skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if err := c.repo.Upsert(ctx, out.Invoice); err != nil {
			c.logger.Error("pipeline.commit.failed", "file", out.Filename, "hash", out.Hash, "error", err)
			out.Status = constants.FilePersistFailed
			out.Reason = err.Error()
			sum.Failed++
			continue
		}
		out.Status = constants.FilePersisted
		sum.Persisted++
		sum.TotalValue += out.Invoice.ValorTotalServico
		sum.TotalISS += out.Invoice.ValorISS
		sum.TotalTaxes += out.Invoice.ValorTotalImpostos
	}
	c.logger.Info("pipeline.commit.done",
		"persisted", sum.Persisted, "failed", sum.Failed, "skipped", sum.Skipped,
		"total_value", sum.TotalValue,
	)
	return sum, nil
}
