// Package pipeline coordinates ingestion: hash dedup, extraction, normalization
// and persistence of invoice documents.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nfse-labs/nfse-tracker/constants"
	"github.com/nfse-labs/nfse-tracker/internal/common"
	"github.com/nfse-labs/nfse-tracker/internal/entity"
	"github.com/nfse-labs/nfse-tracker/internal/extract"
	"github.com/nfse-labs/nfse-tracker/internal/ingest"
	"github.com/nfse-labs/nfse-tracker/internal/normalize"
	"github.com/nfse-labs/nfse-tracker/internal/repository"
)

// FileOutcome is the per-document result of an ingestion batch.
type FileOutcome struct {
	Filename    string
	Hash        string
	Status      constants.FileStatus
	Reason      string
	Invoice     *entity.Invoice
	Diagnostics []normalize.Diagnostic
}

// Coordinator runs documents through extraction and normalization, skipping
// content already known to the repository.
type Coordinator struct {
	logger      *slog.Logger
	repo        repository.InvoiceRepository
	extractor   extract.Extractor
	normalizer  *normalize.Normalizer
	workers     int
	fileTimeout time.Duration
}

func NewCoordinator(
	logger *slog.Logger,
	repo repository.InvoiceRepository,
	extractor extract.Extractor,
	normalizer *normalize.Normalizer,
	cfg common.PipelineConfig,
) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Coordinator{
		logger:      logger,
		repo:        repo,
		extractor:   extractor,
		normalizer:  normalizer,
		workers:     workers,
		fileTimeout: cfg.FileTimeout,
	}
}

// IngestBatch processes each document and returns one outcome per input, in
// input order. The known-hash set is loaded once up front; documents whose
// content hash is already stored, or repeats inside the same batch, come back
// as DUPLICATE without touching the extractor. Extraction and normalization
// failures are reported per file rather than aborting the batch.
func (c *Coordinator) IngestBatch(ctx context.Context, docs []entity.SourceDocument) ([]FileOutcome, error) {
	batchID := uuid.NewString()
	known, err := c.repo.KnownHashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load known hashes: %w", err)
	}
	c.logger.Info("pipeline.ingest.start", "batch_id", batchID, "files", len(docs), "known_hashes", len(known))

	outcomes := make([]FileOutcome, len(docs))

	var mu sync.Mutex
	seen := make(map[string]struct{}, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = c.processOne(gctx, doc, known, &mu, seen)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Info("pipeline.ingest.done", "batch_id", batchID, "files", len(docs))
	return outcomes, nil
}

func (c *Coordinator) processOne(
	ctx context.Context,
	doc entity.SourceDocument,
	known map[string]struct{},
	mu *sync.Mutex,
	seen map[string]struct{},
) FileOutcome {
	out := FileOutcome{Filename: doc.Filename}

	hash, err := ingest.HashDocument(doc)
	if err != nil {
		c.logger.Error("pipeline.hash.failed", "file", doc.Filename, "error", err)
		out.Status = constants.FileReadFailed
		out.Reason = err.Error()
		return out
	}
	out.Hash = hash

	if _, dup := known[hash]; dup {
		c.logger.Info("pipeline.duplicate", "file", doc.Filename, "hash", hash)
		out.Status = constants.FileDuplicate
		out.Reason = "content hash already stored"
		return out
	}
	mu.Lock()
	if _, dup := seen[hash]; dup {
		mu.Unlock()
		c.logger.Info("pipeline.duplicate.in_batch", "file", doc.Filename, "hash", hash)
		out.Status = constants.FileDuplicate
		out.Reason = "same content seen earlier in this batch"
		return out
	}
	seen[hash] = struct{}{}
	mu.Unlock()

	// extraction talks to external OCR/LLM processes; bound its latency per file
	// without cancelling the rest of the batch
	ectx := ctx
	if c.fileTimeout > 0 {
		var cancel context.CancelFunc
		ectx, cancel = context.WithTimeout(ctx, c.fileTimeout)
		defer cancel()
	}
	raw, err := c.extractor.Extract(ectx, doc)
	if err != nil {
		c.logger.Error("pipeline.extract.failed", "file", doc.Filename, "error", err)
		out.Status = constants.FileExtractionFailed
		out.Reason = err.Error()
		return out
	}
	if raw.Empty() {
		c.logger.Warn("pipeline.extract.empty", "file", doc.Filename)
		out.Status = constants.FileExtractionFailed
		out.Reason = common.ErrExtractionFailed.Error()
		return out
	}

	inv, diags := c.normalizer.Normalize(raw)
	inv.Hash = hash
	inv.Arquivo = filepath.Base(doc.Filename)

	out.Status = constants.FileStaged
	out.Invoice = &inv
	out.Diagnostics = diags
	c.logger.Info("pipeline.staged", "file", doc.Filename, "hash", hash, "diagnostics", len(diags))
	return out
}
