package repository

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nfse-labs/nfse-tracker/internal/common"
	"github.com/nfse-labs/nfse-tracker/internal/entity"
)

func newTestRepo(t *testing.T) InvoiceRepository {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), ":memory:", slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleInvoice(hash string) *entity.Invoice {
	issued := time.Date(2018, 11, 18, 0, 0, 0, 0, time.UTC)
	return &entity.Invoice{
		Hash:        hash,
		Arquivo:     "nota_001.pdf",
		ProcessedAt: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		NumeroNota:  "1234",
		IssuedAt:    &issued,
		Prestador: entity.Party{
			TaxID:       "12.345.678/0001-90",
			RazaoSocial: "ACME Serviços LTDA",
		},
		Tomador: entity.Party{
			TaxID:       "123.456.789-00",
			RazaoSocial: "Fulano de Tal",
		},
		Discriminacao:     "Consultoria em TI",
		ValorTotalServico: 1200.00,
		Aliquota:          0.02,
		ValorISS:          24.00,
		Categoria:         "Tecnologia",
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	known, err := repo.KnownHashes(ctx)
	require.NoError(t, err)
	require.Empty(t, known)

	inv := sampleInvoice("aaaabbbbccccddddeeeeffff00001111")
	require.NoError(t, repo.Upsert(ctx, inv))

	known, err = repo.KnownHashes(ctx)
	require.NoError(t, err)
	require.Contains(t, known, inv.Hash)

	all, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	got := all[0]
	require.Equal(t, inv.Hash, got.Hash)
	require.Equal(t, "ACME Serviços LTDA", got.Prestador.RazaoSocial)
	require.Equal(t, 1200.00, got.ValorTotalServico)
	require.Equal(t, 0.02, got.Aliquota)
	require.NotNil(t, got.IssuedAt)
	require.Equal(t, "2018-11-18 00:00:00", got.IssuedAtString())
}

func TestSQLiteUpsertReplacesExisting(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	inv := sampleInvoice("aaaabbbbccccddddeeeeffff00002222")
	require.NoError(t, repo.Upsert(ctx, inv))

	inv.Categoria = "Consultoria"
	inv.ValorTotalServico = 1500.00
	require.NoError(t, repo.Upsert(ctx, inv))

	all, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "Consultoria", all[0].Categoria)
	require.Equal(t, 1500.00, all[0].ValorTotalServico)
}

func TestSQLiteFetchFiltered(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := sampleInvoice("aaaabbbbccccddddeeeeffff00003333")
	b := sampleInvoice("aaaabbbbccccddddeeeeffff00004444")
	b.Arquivo = "nota_002.pdf"
	b.Categoria = "Marketing"
	require.NoError(t, repo.Upsert(ctx, a))
	require.NoError(t, repo.Upsert(ctx, b))

	got, err := repo.FetchFiltered(ctx, "categoria", "Marketing")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, b.Hash, got[0].Hash)

	got, err = repo.FetchFiltered(ctx, "arquivo", "nota_")
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestSQLiteFetchFilteredRejectsUnknownColumn(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.FetchFiltered(context.Background(), "hash; DROP TABLE notas_fiscais", "x")
	require.Error(t, err)
	require.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestSQLitePing(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Ping(context.Background()))
}
