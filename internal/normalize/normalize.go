// Package normalize turns raw, inconsistent extractor output into the canonical
// invoice record. It is pure: no I/O, never raises, every malformed field degrades
// to its type default (0 for money and rate, nil for the issuance date, "" for
// strings) with a diagnostic recorded for the caller to log.
package normalize

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nfse-labs/nfse-tracker/constants"
	"github.com/nfse-labs/nfse-tracker/internal/entity"
)

// Diagnostic records one field that could not be parsed as its target type and was
// defaulted. Not an error: normalization always runs to completion.
type Diagnostic struct {
	Field  string
	Reason string
	Raw    any
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s (raw=%v)", d.Field, d.Reason, d.Raw)
}

type Normalizer struct {
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Normalizer)

func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

func New(logger *slog.Logger, opts ...Option) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Normalizer{logger: logger, now: time.Now}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Normalize maps a raw extraction result, in any historical schema shape, onto the
// canonical record. Identity fields (hash, filename) are the caller's to attach;
// the processing timestamp is stamped here.
func (n *Normalizer) Normalize(raw map[string]any) (entity.Invoice, []Diagnostic) {
	var diags []Diagnostic

	str := func(field string) string {
		v, ok := lookup(raw, field)
		if !ok {
			return ""
		}
		s := CleanString(v)
		if s == "" && v != nil {
			if _, isStr := v.(string); !isStr {
				diags = append(diags, Diagnostic{Field: field, Reason: "not a string", Raw: v})
			}
		}
		return s
	}
	money := func(field string) float64 {
		v, ok := lookup(raw, field)
		if !ok {
			return 0
		}
		f, parsed := ParseMoney(v)
		if !parsed {
			diags = append(diags, Diagnostic{Field: field, Reason: "unparseable amount", Raw: v})
			return 0
		}
		return f
	}

	inv := entity.Invoice{
		ProcessedAt:       n.now().UTC().Truncate(time.Second),
		NumeroNota:        str("numero_nota"),
		CodigoVerificacao: str("codigo_verificacao"),
		Prestador: entity.Party{
			TaxID:              str("prestador_cnpj"),
			RazaoSocial:        str("prestador_razao_social"),
			InscricaoMunicipal: str("prestador_inscricao_municipal"),
			Address: entity.Address{
				Logradouro: str("prestador_logradouro"),
				Bairro:     str("prestador_bairro"),
				CEP:        str("prestador_cep"),
				Cidade:     str("prestador_cidade"),
				UF:         str("prestador_uf"),
			},
		},
		Tomador: entity.Party{
			TaxID:       str("tomador_cpf"),
			RazaoSocial: str("tomador_razao_social"),
			Email:       str("tomador_email"),
			Address: entity.Address{
				Logradouro: str("tomador_logradouro"),
				Bairro:     str("tomador_bairro"),
				CEP:        str("tomador_cep"),
				Cidade:     str("tomador_cidade"),
				UF:         str("tomador_uf"),
			},
		},
		Discriminacao:      str("discriminacao_servicos"),
		ServicoCodigo:      str("servico_codigo"),
		ServicoDescricao:   str("servico_descricao"),
		ValorTotalServico:  money("valor_total_servico"),
		BaseCalculo:        money("base_calculo"),
		ValorISS:           money("valor_iss"),
		ValorTotalImpostos: money("valor_total_impostos"),
		ValorPIS:           money("valor_pis"),
		ValorCOFINS:        money("valor_cofins"),
		ValorCSLL:          money("valor_csll"),
		ValorIRRF:          money("valor_irrf"),
		ValorINSS:          money("valor_inss"),
		ValorDeducoes:      money("valor_deducoes"),
		ValorCredito:       money("valor_credito"),
		ValorRetencaoFonte: money("valor_retencao_fonte"),
	}

	if v, ok := lookup(raw, "aliquota"); ok {
		rate, parsed := ParseRate(v)
		if !parsed {
			diags = append(diags, Diagnostic{Field: "aliquota", Reason: "unparseable rate", Raw: v})
		}
		inv.Aliquota = rate
	}

	if v, ok := lookup(raw, "data_hora_emissao"); ok {
		s := CleanString(v)
		if s != "" {
			if t := ParseDateTime(s); t != nil {
				inv.IssuedAt = t
			} else {
				diags = append(diags, Diagnostic{Field: "data_hora_emissao", Reason: "unparseable datetime", Raw: v})
			}
		}
	}

	rawCat := str("categoria")
	if cat, matched := constants.Canonicalize(rawCat); matched || rawCat == "" {
		inv.Categoria = string(cat)
	} else {
		// unknown but non-blank label: keep the reviewer-visible free text
		inv.Categoria = rawCat
	}

	if len(diags) > 0 {
		n.logger.Info("normalize.fields_defaulted", "count", len(diags))
	}
	return inv, diags
}
