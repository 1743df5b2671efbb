// Package repository is the persistence gateway for canonical invoice records,
// keyed by content hash. Upsert is idempotent on hash: a second call with the
// same hash overwrites the stored fields instead of erroring.
package repository

import (
	"context"

	"github.com/nfse-labs/nfse-tracker/internal/entity"
)

type InvoiceRepository interface {
	// KnownHashes returns every stored content hash; the coordinator fetches it
	// once per batch.
	KnownHashes(ctx context.Context) (map[string]struct{}, error)
	// Upsert stores or overwrites the record keyed by its hash.
	Upsert(ctx context.Context, inv *entity.Invoice) error
	// FetchAll returns every stored record, newest issuance first.
	FetchAll(ctx context.Context) ([]*entity.Invoice, error)
	// FetchFiltered returns records whose column contains substring. The column
	// must be in FilterableColumns.
	FetchFiltered(ctx context.Context, column, substring string) ([]*entity.Invoice, error)

	Ping(ctx context.Context) error
	Close() error
}

// FilterableColumns is the allowlist for FetchFiltered; anything else is an
// invalid-input error, never interpolated into SQL.
var FilterableColumns = map[string]struct{}{
	"numero_nota":            {},
	"arquivo":                {},
	"prestador_cnpj":         {},
	"prestador_razao_social": {},
	"tomador_razao_social":   {},
	"categoria":              {},
}

// columns is the stored column order, shared by both backends. hash comes first
// and is the primary key.
var columns = []string{
	"hash", "arquivo", "data_processamento",
	"numero_nota", "data_hora_emissao", "codigo_verificacao",
	"prestador_cnpj", "prestador_razao_social", "prestador_inscricao_municipal",
	"prestador_logradouro", "prestador_bairro", "prestador_cep", "prestador_cidade", "prestador_uf",
	"tomador_cpf", "tomador_razao_social", "tomador_email",
	"tomador_logradouro", "tomador_bairro", "tomador_cep", "tomador_cidade", "tomador_uf",
	"discriminacao_servicos", "servico_codigo", "servico_descricao",
	"valor_total_servico", "base_calculo", "aliquota", "valor_iss", "valor_total_impostos",
	"valor_pis", "valor_cofins", "valor_csll", "valor_irrf", "valor_inss",
	"valor_deducoes", "valor_credito", "valor_retencao_fonte",
	"categoria",
}
