package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nfse-labs/nfse-tracker/constants"
	"github.com/nfse-labs/nfse-tracker/internal/common"
	"github.com/nfse-labs/nfse-tracker/internal/entity"
	"github.com/nfse-labs/nfse-tracker/internal/extract"
	"github.com/nfse-labs/nfse-tracker/internal/normalize"
)

type fakeRepo struct {
	mu        sync.Mutex
	known     map[string]struct{}
	upserts   []*entity.Invoice
	upsertErr map[string]error
}

func newFakeRepo(hashes ...string) *fakeRepo {
	known := make(map[string]struct{})
	for _, h := range hashes {
		known[h] = struct{}{}
	}
	return &fakeRepo{known: known, upsertErr: map[string]error{}}
}

func (f *fakeRepo) KnownHashes(_ context.Context) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]struct{}, len(f.known))
	for h := range f.known {
		out[h] = struct{}{}
	}
	return out, nil
}

func (f *fakeRepo) Upsert(_ context.Context, inv *entity.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.upsertErr[inv.Hash]; err != nil {
		return err
	}
	f.known[inv.Hash] = struct{}{}
	f.upserts = append(f.upserts, inv)
	return nil
}

func (f *fakeRepo) FetchAll(_ context.Context) ([]*entity.Invoice, error) { return nil, nil }
func (f *fakeRepo) FetchFiltered(_ context.Context, _, _ string) ([]*entity.Invoice, error) {
	return nil, nil
}
func (f *fakeRepo) Ping(_ context.Context) error { return nil }
func (f *fakeRepo) Close() error                 { return nil }

type fakeExtractor struct {
	results map[string]extract.RawResult
	errs    map[string]error
}

func (f *fakeExtractor) Extract(_ context.Context, doc entity.SourceDocument) (extract.RawResult, error) {
	if err := f.errs[doc.Filename]; err != nil {
		return nil, err
	}
	return f.results[doc.Filename], nil
}

func testCoordinator(repo *fakeRepo, ex extract.Extractor, workers int) *Coordinator {
	return timeoutCoordinator(repo, ex, common.PipelineConfig{Workers: workers})
}

func timeoutCoordinator(repo *fakeRepo, ex extract.Extractor, cfg common.PipelineConfig) *Coordinator {
	logger := slog.Default()
	norm := normalize.New(logger, normalize.WithClock(func() time.Time {
		return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	}))
	return NewCoordinator(logger, repo, ex, norm, cfg)
}

func rawFor(numero string) extract.RawResult {
	return extract.RawResult{
		"numero_nota":            numero,
		"valor_total_servico":    "R$ 100,00",
		"prestador_cnpj":         "12.345.678/0001-90",
		"data_hora_emissao":      "18/11/2018",
		"discriminacao_servicos": "serviço",
	}
}

func TestIngestBatchStagesNewDocuments(t *testing.T) {
	repo := newFakeRepo()
	docA := entity.NewBytesDocument("a.pdf", []byte("conteudo A"))
	docB := entity.NewBytesDocument("b.pdf", []byte("conteudo B"))
	ex := &fakeExtractor{results: map[string]extract.RawResult{
		"a.pdf": rawFor("1"),
		"b.pdf": rawFor("2"),
	}}

	out, err := testCoordinator(repo, ex, 2).IngestBatch(context.Background(), []entity.SourceDocument{docA, docB})
	require.NoError(t, err)
	require.Len(t, out, 2)

	// outcomes keep input order regardless of worker scheduling
	require.Equal(t, "a.pdf", out[0].Filename)
	require.Equal(t, "b.pdf", out[1].Filename)
	for _, o := range out {
		require.Equal(t, constants.FileStaged, o.Status)
		require.Len(t, o.Hash, 32)
		require.NotNil(t, o.Invoice)
		require.Equal(t, o.Hash, o.Invoice.Hash)
		require.Equal(t, o.Filename, o.Invoice.Arquivo)
	}
}

func TestIngestBatchSkipsKnownHashes(t *testing.T) {
	doc := entity.NewBytesDocument("a.pdf", []byte("conteudo A"))
	first := newFakeRepo()
	ex := &fakeExtractor{results: map[string]extract.RawResult{"a.pdf": rawFor("1")}}
	coord := testCoordinator(first, ex, 1)

	out, err := coord.IngestBatch(context.Background(), []entity.SourceDocument{doc})
	require.NoError(t, err)
	require.Equal(t, constants.FileStaged, out[0].Status)

	repo := newFakeRepo(out[0].Hash)
	out, err = testCoordinator(repo, ex, 1).IngestBatch(context.Background(), []entity.SourceDocument{doc})
	require.NoError(t, err)
	require.Equal(t, constants.FileDuplicate, out[0].Status)
}

func TestIngestBatchDeduplicatesWithinBatch(t *testing.T) {
	repo := newFakeRepo()
	same := []byte("mesmo conteudo")
	docs := []entity.SourceDocument{
		entity.NewBytesDocument("copia1.pdf", same),
		entity.NewBytesDocument("copia2.pdf", same),
	}
	ex := &fakeExtractor{results: map[string]extract.RawResult{
		"copia1.pdf": rawFor("1"),
		"copia2.pdf": rawFor("1"),
	}}

	out, err := testCoordinator(repo, ex, 1).IngestBatch(context.Background(), docs)
	require.NoError(t, err)
	require.Equal(t, constants.FileStaged, out[0].Status)
	require.Equal(t, constants.FileDuplicate, out[1].Status)
}

func TestIngestBatchIsolatesExtractionFailures(t *testing.T) {
	repo := newFakeRepo()
	docs := []entity.SourceDocument{
		entity.NewBytesDocument("ok1.pdf", []byte("um")),
		entity.NewBytesDocument("bad.pdf", []byte("dois")),
		entity.NewBytesDocument("ok2.pdf", []byte("tres")),
	}
	ex := &fakeExtractor{
		results: map[string]extract.RawResult{
			"ok1.pdf": rawFor("1"),
			"ok2.pdf": rawFor("3"),
		},
		errs: map[string]error{"bad.pdf": errors.New("model unavailable")},
	}

	out, err := testCoordinator(repo, ex, 2).IngestBatch(context.Background(), docs)
	require.NoError(t, err)
	require.Equal(t, constants.FileStaged, out[0].Status)
	require.Equal(t, constants.FileExtractionFailed, out[1].Status)
	require.Contains(t, out[1].Reason, "model unavailable")
	require.Equal(t, constants.FileStaged, out[2].Status)
}

type stallExtractor struct {
	inner *fakeExtractor
	stall string
}

func (s stallExtractor) Extract(ctx context.Context, doc entity.SourceDocument) (extract.RawResult, error) {
	if doc.Filename == s.stall {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.inner.Extract(ctx, doc)
}

func TestIngestBatchBoundsPerFileExtractionTime(t *testing.T) {
	repo := newFakeRepo()
	docs := []entity.SourceDocument{
		entity.NewBytesDocument("lento.pdf", []byte("um")),
		entity.NewBytesDocument("rapido.pdf", []byte("dois")),
	}
	ex := stallExtractor{
		inner: &fakeExtractor{results: map[string]extract.RawResult{"rapido.pdf": rawFor("2")}},
		stall: "lento.pdf",
	}
	coord := timeoutCoordinator(repo, ex, common.PipelineConfig{Workers: 2, FileTimeout: 20 * time.Millisecond})

	out, err := coord.IngestBatch(context.Background(), docs)
	require.NoError(t, err)
	require.Equal(t, constants.FileExtractionFailed, out[0].Status)
	require.Contains(t, out[0].Reason, "context deadline exceeded")
	require.Equal(t, constants.FileStaged, out[1].Status)
}

func TestIngestBatchReportsEmptyExtraction(t *testing.T) {
	repo := newFakeRepo()
	doc := entity.NewBytesDocument("vazio.pdf", []byte("nada"))
	ex := &fakeExtractor{results: map[string]extract.RawResult{"vazio.pdf": {}}}

	out, err := testCoordinator(repo, ex, 1).IngestBatch(context.Background(), []entity.SourceDocument{doc})
	require.NoError(t, err)
	require.Equal(t, constants.FileExtractionFailed, out[0].Status)
}

func TestCommitBatchPersistsStagedAndSummarizes(t *testing.T) {
	repo := newFakeRepo()
	docs := []entity.SourceDocument{
		entity.NewBytesDocument("a.pdf", []byte("um")),
		entity.NewBytesDocument("b.pdf", []byte("dois")),
	}
	ex := &fakeExtractor{results: map[string]extract.RawResult{
		"a.pdf": rawFor("1"),
		"b.pdf": rawFor("2"),
	}}
	coord := testCoordinator(repo, ex, 1)

	out, err := coord.IngestBatch(context.Background(), docs)
	require.NoError(t, err)

	sum, err := coord.CommitBatch(context.Background(), out)
	require.NoError(t, err)
	require.Equal(t, 2, sum.Persisted)
	require.Equal(t, 0, sum.Failed)
	require.InDelta(t, 200.00, sum.TotalValue, 0.001)
	require.Len(t, repo.upserts, 2)
	require.Equal(t, constants.FilePersisted, out[0].Status)
	require.Equal(t, constants.FilePersisted, out[1].Status)
}

func TestCommitBatchKeepsGoingAfterUpsertFailure(t *testing.T) {
	repo := newFakeRepo()
	docs := []entity.SourceDocument{
		entity.NewBytesDocument("a.pdf", []byte("um")),
		entity.NewBytesDocument("b.pdf", []byte("dois")),
	}
	ex := &fakeExtractor{results: map[string]extract.RawResult{
		"a.pdf": rawFor("1"),
		"b.pdf": rawFor("2"),
	}}
	coord := testCoordinator(repo, ex, 1)

	out, err := coord.IngestBatch(context.Background(), docs)
	require.NoError(t, err)
	repo.upsertErr[out[0].Hash] = errors.New("disk full")

	sum, err := coord.CommitBatch(context.Background(), out)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Persisted)
	require.Equal(t, 1, sum.Failed)
	require.Equal(t, constants.FilePersistFailed, out[0].Status)
	require.Equal(t, constants.FilePersisted, out[1].Status)
}

func TestCommitBatchSkipsNonStaged(t *testing.T) {
	repo := newFakeRepo()
	coord := testCoordinator(repo, &fakeExtractor{}, 1)

	out := []FileOutcome{{Filename: "dup.pdf", Status: constants.FileDuplicate}}
	sum, err := coord.CommitBatch(context.Background(), out)
	require.NoError(t, err)
	require.Equal(t, 0, sum.Persisted)
	require.Equal(t, 1, sum.Skipped)
	require.Empty(t, repo.upserts)
}
