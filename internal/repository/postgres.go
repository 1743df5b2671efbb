package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nfse-labs/nfse-tracker/internal/common"
	"github.com/nfse-labs/nfse-tracker/internal/entity"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS notas_fiscais (
	hash VARCHAR(32) PRIMARY KEY,
	arquivo VARCHAR(255),
	data_processamento TIMESTAMP NOT NULL,
	numero_nota VARCHAR(50),
	data_hora_emissao TIMESTAMP NULL,
	codigo_verificacao VARCHAR(50),
	prestador_cnpj VARCHAR(20),
	prestador_razao_social VARCHAR(255),
	prestador_inscricao_municipal VARCHAR(50),
	prestador_logradouro TEXT,
	prestador_bairro VARCHAR(100),
	prestador_cep VARCHAR(10),
	prestador_cidade VARCHAR(100),
	prestador_uf VARCHAR(2),
	tomador_cpf VARCHAR(20),
	tomador_razao_social VARCHAR(255),
	tomador_email VARCHAR(255),
	tomador_logradouro TEXT,
	tomador_bairro VARCHAR(100),
	tomador_cep VARCHAR(10),
	tomador_cidade VARCHAR(100),
	tomador_uf VARCHAR(2),
	discriminacao_servicos TEXT,
	servico_codigo VARCHAR(50),
	servico_descricao TEXT,
	valor_total_servico NUMERIC(12,2) NOT NULL DEFAULT 0,
	base_calculo NUMERIC(12,2) NOT NULL DEFAULT 0,
	aliquota NUMERIC(5,4) NOT NULL DEFAULT 0,
	valor_iss NUMERIC(12,2) NOT NULL DEFAULT 0,
	valor_total_impostos NUMERIC(12,2) NOT NULL DEFAULT 0,
	valor_pis NUMERIC(12,2) NOT NULL DEFAULT 0,
	valor_cofins NUMERIC(12,2) NOT NULL DEFAULT 0,
	valor_csll NUMERIC(12,2) NOT NULL DEFAULT 0,
	valor_irrf NUMERIC(12,2) NOT NULL DEFAULT 0,
	valor_inss NUMERIC(12,2) NOT NULL DEFAULT 0,
	valor_deducoes NUMERIC(12,2) NOT NULL DEFAULT 0,
	valor_credito NUMERIC(12,2) NOT NULL DEFAULT 0,
	valor_retencao_fonte NUMERIC(12,2) NOT NULL DEFAULT 0,
	categoria VARCHAR(100)
);`

type postgresRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres creates a pgx pool against cfg.DSN and ensures the table exists.
func OpenPostgres(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (InvoiceRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "nfse-tracker"

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("repository.postgres.connect_failed", "error", err)
		return nil, fmt.Errorf("connect: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("repository.postgres.open")
	return &postgresRepository{pool: pool, logger: logger}, nil
}

func (r *postgresRepository) KnownHashes(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx, `SELECT hash FROM notas_fiscais`)
	if err != nil {
		return nil, fmt.Errorf("query hashes: %w", err)
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan hash: %w", err)
		}
		known[h] = struct{}{}
	}
	return known, rows.Err()
}

func (r *postgresRepository) Upsert(ctx context.Context, inv *entity.Invoice) error {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	sets := make([]string, 0, len(columns)-1)
	for _, c := range columns[1:] {
		sets = append(sets, fmt.Sprintf("%s=EXCLUDED.%s", c, c))
	}
	query := fmt.Sprintf(
		`INSERT INTO notas_fiscais (%s) VALUES (%s) ON CONFLICT (hash) DO UPDATE SET %s`,
		strings.Join(columns, ", "), strings.Join(placeholders, ", "), strings.Join(sets, ", "),
	)

	_, err := r.pool.Exec(ctx, query,
		inv.Hash, inv.Arquivo, inv.ProcessedAt,
		inv.NumeroNota, inv.IssuedAt, inv.CodigoVerificacao,
		inv.Prestador.TaxID, inv.Prestador.RazaoSocial, inv.Prestador.InscricaoMunicipal,
		inv.Prestador.Address.Logradouro, inv.Prestador.Address.Bairro, inv.Prestador.Address.CEP,
		inv.Prestador.Address.Cidade, inv.Prestador.Address.UF,
		inv.Tomador.TaxID, inv.Tomador.RazaoSocial, inv.Tomador.Email,
		inv.Tomador.Address.Logradouro, inv.Tomador.Address.Bairro, inv.Tomador.Address.CEP,
		inv.Tomador.Address.Cidade, inv.Tomador.Address.UF,
		inv.Discriminacao, inv.ServicoCodigo, inv.ServicoDescricao,
		inv.ValorTotalServico, inv.BaseCalculo, inv.Aliquota, inv.ValorISS, inv.ValorTotalImpostos,
		inv.ValorPIS, inv.ValorCOFINS, inv.ValorCSLL, inv.ValorIRRF, inv.ValorINSS,
		inv.ValorDeducoes, inv.ValorCredito, inv.ValorRetencaoFonte,
		inv.Categoria,
	)
	if err != nil {
		r.logger.Error("repository.upsert_failed", "hash", inv.Hash, "error", err)
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	return nil
}

func (r *postgresRepository) FetchAll(ctx context.Context) ([]*entity.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM notas_fiscais ORDER BY data_hora_emissao DESC NULLS LAST`,
		strings.Join(columns, ", "))
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()
	return scanPostgresRows(rows)
}

func (r *postgresRepository) FetchFiltered(ctx context.Context, column, substring string) ([]*entity.Invoice, error) {
	if _, ok := FilterableColumns[column]; !ok {
		return nil, fmt.Errorf("%w: column %q is not filterable", common.ErrInvalidInput, column)
	}
	query := fmt.Sprintf(`SELECT %s FROM notas_fiscais WHERE %s ILIKE $1 ORDER BY data_hora_emissao DESC NULLS LAST`,
		strings.Join(columns, ", "), column)
	rows, err := r.pool.Query(ctx, query, "%"+substring+"%")
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()
	return scanPostgresRows(rows)
}

func (r *postgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *postgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func scanPostgresRows(rows pgx.Rows) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	for rows.Next() {
		var inv entity.Invoice
		var processed time.Time
		var issued *time.Time
		var arquivo, numero, codigo *string
		var pCNPJ, pRazao, pInscr, pLog, pBairro, pCEP, pCidade, pUF *string
		var tCPF, tRazao, tEmail, tLog, tBairro, tCEP, tCidade, tUF *string
		var discr, servCod, servDesc, categoria *string

		err := rows.Scan(
			&inv.Hash, &arquivo, &processed,
			&numero, &issued, &codigo,
			&pCNPJ, &pRazao, &pInscr, &pLog, &pBairro, &pCEP, &pCidade, &pUF,
			&tCPF, &tRazao, &tEmail, &tLog, &tBairro, &tCEP, &tCidade, &tUF,
			&discr, &servCod, &servDesc,
			&inv.ValorTotalServico, &inv.BaseCalculo, &inv.Aliquota, &inv.ValorISS, &inv.ValorTotalImpostos,
			&inv.ValorPIS, &inv.ValorCOFINS, &inv.ValorCSLL, &inv.ValorIRRF, &inv.ValorINSS,
			&inv.ValorDeducoes, &inv.ValorCredito, &inv.ValorRetencaoFonte,
			&categoria,
		)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}

		inv.ProcessedAt = processed
		inv.IssuedAt = issued
		inv.Arquivo = deref(arquivo)
		inv.NumeroNota = deref(numero)
		inv.CodigoVerificacao = deref(codigo)
		inv.Prestador = entity.Party{
			TaxID: deref(pCNPJ), RazaoSocial: deref(pRazao), InscricaoMunicipal: deref(pInscr),
			Address: entity.Address{Logradouro: deref(pLog), Bairro: deref(pBairro), CEP: deref(pCEP), Cidade: deref(pCidade), UF: deref(pUF)},
		}
		inv.Tomador = entity.Party{
			TaxID: deref(tCPF), RazaoSocial: deref(tRazao), Email: deref(tEmail),
			Address: entity.Address{Logradouro: deref(tLog), Bairro: deref(tBairro), CEP: deref(tCEP), Cidade: deref(tCidade), UF: deref(tUF)},
		}
		inv.Discriminacao = deref(discr)
		inv.ServicoCodigo = deref(servCod)
		inv.ServicoDescricao = deref(servDesc)
		inv.Categoria = deref(categoria)

		out = append(out, &inv)
	}
	return out, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
