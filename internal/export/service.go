// Package export serializes stored invoices to spreadsheet formats.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nfse-labs/nfse-tracker/internal/entity"
	"github.com/nfse-labs/nfse-tracker/internal/repository"
)

// DefaultSheetName is the worksheet written to XLSX exports unless configured
// otherwise.
const DefaultSheetName = "DadosNFS"

// headers keeps the historical spreadsheet column order.
var headers = []string{
	"hash", "arquivo", "data_processamento", "numero_nota", "data_hora_emissao", "codigo_verificacao",
	"prestador_cnpj", "prestador_razao_social", "prestador_logradouro", "prestador_bairro", "prestador_cep", "prestador_cidade", "prestador_uf", "prestador_inscricao_municipal",
	"tomador_cpf", "tomador_razao_social", "tomador_logradouro", "tomador_bairro", "tomador_cep", "tomador_cidade", "tomador_uf", "tomador_email",
	"discriminacao_servicos", "servico_codigo", "servico_descricao",
	"valor_total_servico", "base_calculo", "aliquota", "valor_iss",
	"valor_total_impostos",
	"valor_pis", "valor_cofins", "valor_csll", "valor_irrf", "valor_inss",
	"valor_deducoes", "valor_credito", "valor_retencao_fonte",
	"categoria",
}

// Service reads invoices from the store and produces export artifacts.
type Service struct {
	repo   repository.InvoiceRepository
	sheet  string
	logger *slog.Logger
}

func NewService(repo repository.InvoiceRepository, sheetName string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	return &Service{repo: repo, sheet: sheetName, logger: logger}
}

func (s *Service) fetch(ctx context.Context, column, substring string) ([]*entity.Invoice, error) {
	if column != "" {
		return s.repo.FetchFiltered(ctx, column, substring)
	}
	return s.repo.FetchAll(ctx)
}

// ExportXLSX returns a single-sheet workbook with one row per stored invoice.
// An empty column exports everything; otherwise rows are filtered like the
// records listing.
func (s *Service) ExportXLSX(ctx context.Context, column, substring string) ([]byte, error) {
	start := time.Now()
	invoices, err := s.fetch(ctx, column, substring)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet(s.sheet); err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	index, _ := f.GetSheetIndex(s.sheet)
	f.SetActiveSheet(index)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(s.sheet, cell, h); err != nil {
			return nil, err
		}
	}
	for r, inv := range invoices {
		for c, v := range rowValues(inv) {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(s.sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("export.xlsx.done", "rows", len(invoices), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

// ExportCSV renders the same rows as ExportXLSX, comma separated, UTF-8.
func (s *Service) ExportCSV(ctx context.Context, column, substring string) ([]byte, error) {
	invoices, err := s.fetch(ctx, column, substring)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		record := make([]string, len(headers))
		for i, v := range rowValues(inv) {
			record[i] = cellString(v)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	s.logger.Info("export.csv.done", "rows", len(invoices))
	return buf.Bytes(), nil
}

func rowValues(inv *entity.Invoice) []any {
	return []any{
		inv.Hash, inv.Arquivo, inv.ProcessedAt.Format(entity.DateTimeLayout),
		inv.NumeroNota, inv.IssuedAtString(), inv.CodigoVerificacao,
		inv.Prestador.TaxID, inv.Prestador.RazaoSocial,
		inv.Prestador.Address.Logradouro, inv.Prestador.Address.Bairro, inv.Prestador.Address.CEP,
		inv.Prestador.Address.Cidade, inv.Prestador.Address.UF, inv.Prestador.InscricaoMunicipal,
		inv.Tomador.TaxID, inv.Tomador.RazaoSocial,
		inv.Tomador.Address.Logradouro, inv.Tomador.Address.Bairro, inv.Tomador.Address.CEP,
		inv.Tomador.Address.Cidade, inv.Tomador.Address.UF, inv.Tomador.Email,
		inv.Discriminacao, inv.ServicoCodigo, inv.ServicoDescricao,
		inv.ValorTotalServico, inv.BaseCalculo, inv.Aliquota, inv.ValorISS,
		inv.ValorTotalImpostos,
		inv.ValorPIS, inv.ValorCOFINS, inv.ValorCSLL, inv.ValorIRRF, inv.ValorINSS,
		inv.ValorDeducoes, inv.ValorCredito, inv.ValorRetencaoFonte,
		inv.Categoria,
	}
}

func cellString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
