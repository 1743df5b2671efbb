package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nfse-labs/nfse-tracker/internal/common"
	"github.com/nfse-labs/nfse-tracker/internal/entity"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS notas_fiscais (
	hash TEXT PRIMARY KEY,
	arquivo TEXT,
	data_processamento TEXT,
	numero_nota TEXT,
	data_hora_emissao TEXT,
	codigo_verificacao TEXT,
	prestador_cnpj TEXT,
	prestador_razao_social TEXT,
	prestador_inscricao_municipal TEXT,
	prestador_logradouro TEXT,
	prestador_bairro TEXT,
	prestador_cep TEXT,
	prestador_cidade TEXT,
	prestador_uf TEXT,
	tomador_cpf TEXT,
	tomador_razao_social TEXT,
	tomador_email TEXT,
	tomador_logradouro TEXT,
	tomador_bairro TEXT,
	tomador_cep TEXT,
	tomador_cidade TEXT,
	tomador_uf TEXT,
	discriminacao_servicos TEXT,
	servico_codigo TEXT,
	servico_descricao TEXT,
	valor_total_servico REAL NOT NULL DEFAULT 0,
	base_calculo REAL NOT NULL DEFAULT 0,
	aliquota REAL NOT NULL DEFAULT 0,
	valor_iss REAL NOT NULL DEFAULT 0,
	valor_total_impostos REAL NOT NULL DEFAULT 0,
	valor_pis REAL NOT NULL DEFAULT 0,
	valor_cofins REAL NOT NULL DEFAULT 0,
	valor_csll REAL NOT NULL DEFAULT 0,
	valor_irrf REAL NOT NULL DEFAULT 0,
	valor_inss REAL NOT NULL DEFAULT 0,
	valor_deducoes REAL NOT NULL DEFAULT 0,
	valor_credito REAL NOT NULL DEFAULT 0,
	valor_retencao_fonte REAL NOT NULL DEFAULT 0,
	categoria TEXT
);`

// sqliteRepository is the local-file backend; timestamps are stored as canonical
// text since SQLite has no native datetime type.
type sqliteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the SQLite store at dsn.
func OpenSQLite(ctx context.Context, dsn string, logger *slog.Logger) (InvoiceRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite serializes writes itself; one writer connection avoids
	// SQLITE_BUSY under the coordinator's workers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("repository.sqlite.open", "dsn", dsn)
	return &sqliteRepository{db: db, logger: logger}, nil
}

func (r *sqliteRepository) KnownHashes(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT hash FROM notas_fiscais`)
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

func (r *sqliteRepository) Upsert(ctx context.Context, inv *entity.Invoice) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	sets := make([]string, 0, len(columns)-1)
	for _, c := range columns[1:] {
		sets = append(sets, fmt.Sprintf("%s=excluded.%s", c, c))
	}
	query := fmt.Sprintf(
		`INSERT INTO notas_fiscais (%s) VALUES (%s) ON CONFLICT(hash) DO UPDATE SET %s`,
		strings.Join(columns, ", "), placeholders, strings.Join(sets, ", "),
	)

	var issued any
	if inv.IssuedAt != nil {
		issued = inv.IssuedAt.Format(entity.DateTimeLayout)
	}
	_, err := r.db.ExecContext(ctx, query,
		inv.Hash, inv.Arquivo, inv.ProcessedAt.Format(entity.DateTimeLayout),
		inv.NumeroNota, issued, inv.CodigoVerificacao,
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

func (r *sqliteRepository) FetchAll(ctx context.Context) ([]*entity.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM notas_fiscais ORDER BY data_hora_emissao DESC`,
		strings.Join(columns, ", "))
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()
	return scanSQLiteRows(rows)
}

func (r *sqliteRepository) FetchFiltered(ctx context.Context, column, substring string) ([]*entity.Invoice, error) {
	if _, ok := FilterableColumns[column]; !ok {
		return nil, fmt.Errorf("%w: column %q is not filterable", common.ErrInvalidInput, column)
	}
	query := fmt.Sprintf(`SELECT %s FROM notas_fiscais WHERE %s LIKE ? ORDER BY data_hora_emissao DESC`,
		strings.Join(columns, ", "), column)
	rows, err := r.db.QueryContext(ctx, query, "%"+substring+"%")
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()
	return scanSQLiteRows(rows)
}

func (r *sqliteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *sqliteRepository) Close() error {
	return r.db.Close()
}

func scanSQLiteRows(rows *sql.Rows) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	for rows.Next() {
		var inv entity.Invoice
		var processed string
		var issued, numero, codigo, arquivo sql.NullString
		var pCNPJ, pRazao, pInscr, pLog, pBairro, pCEP, pCidade, pUF sql.NullString
		var tCPF, tRazao, tEmail, tLog, tBairro, tCEP, tCidade, tUF sql.NullString
		var discr, servCod, servDesc, categoria sql.NullString

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

		if t, err := time.ParseInLocation(entity.DateTimeLayout, processed, time.UTC); err == nil {
			inv.ProcessedAt = t
		}
		if issued.Valid && issued.String != "" {
			if t, err := time.ParseInLocation(entity.DateTimeLayout, issued.String, time.UTC); err == nil {
				inv.IssuedAt = &t
			}
		}
		inv.Arquivo = arquivo.String
		inv.NumeroNota = numero.String
		inv.CodigoVerificacao = codigo.String
		inv.Prestador = entity.Party{
			TaxID: pCNPJ.String, RazaoSocial: pRazao.String, InscricaoMunicipal: pInscr.String,
			Address: entity.Address{Logradouro: pLog.String, Bairro: pBairro.String, CEP: pCEP.String, Cidade: pCidade.String, UF: pUF.String},
		}
		inv.Tomador = entity.Party{
			TaxID: tCPF.String, RazaoSocial: tRazao.String, Email: tEmail.String,
			Address: entity.Address{Logradouro: tLog.String, Bairro: tBairro.String, CEP: tCEP.String, Cidade: tCidade.String, UF: tUF.String},
		}
		inv.Discriminacao = discr.String
		inv.ServicoCodigo = servCod.String
		inv.ServicoDescricao = servDesc.String
		inv.Categoria = categoria.String

		out = append(out, &inv)
	}
	return out, rows.Err()
}
