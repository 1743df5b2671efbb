package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfse-labs/nfse-tracker/constants"
)

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newTestNormalizer() *Normalizer {
	return New(nil, WithClock(fixedClock))
}

func nestedRaw() map[string]any {
	return map[string]any{
		"numero_nota":        "00016838",
		"data_hora_emissao":  "18/11/2018",
		"codigo_verificacao": "LUES-8XKJ",
		"prestador": map[string]any{
			"cnpj":                "00.126.717/0001-84",
			"razao_social":        "CLINICA VALERIO LTDA",
			"inscricao_municipal": "2.276.461-5",
			"endereco": map[string]any{
				"logradouro": "R PORTO XAVIER 00066",
				"bairro":     "TAQUERA",
				"cep":        "08210-170",
				"cidade":     "São Paulo",
				"uf":         "SP",
			},
		},
		"tomador": map[string]any{
			"cpf":          "050.972.418-09",
			"razao_social": "DIELSON DOS PASSOS MENDES",
			"email":        "dielsonmendes@hotmail.com",
		},
		"servico": map[string]any{
			"discriminacao": "REFERENTE A SERVIÇOS ODONTOLOGICO DO MESMO",
			"codigo":        "04893",
			"descricao":     "Odontologia.",
		},
		"valores": map[string]any{
			"total_servico": "R$ 1.200,00",
			"base_calculo":  "1.200,00",
			"aliquota":      "2,00%",
			"valor_iss":     "24,00",
		},
		"valor_total_impostos": "R$ 195,96",
		"categoria":            "Saúde",
	}
}

func TestNormalizeNestedShape(t *testing.T) {
	n := newTestNormalizer()

	inv, diags := n.Normalize(nestedRaw())
	assert.Empty(t, diags)

	assert.Equal(t, "00016838", inv.NumeroNota)
	assert.Equal(t, "2018-11-18 00:00:00", inv.IssuedAtString())
	assert.Equal(t, "00.126.717/0001-84", inv.Prestador.TaxID)
	assert.Equal(t, "TAQUERA", inv.Prestador.Address.Bairro)
	assert.Equal(t, "dielsonmendes@hotmail.com", inv.Tomador.Email)
	assert.InDelta(t, 1200.00, inv.ValorTotalServico, 0.001)
	assert.InDelta(t, 1200.00, inv.BaseCalculo, 0.001)
	assert.InDelta(t, 0.02, inv.Aliquota, 0.0001)
	assert.InDelta(t, 24.00, inv.ValorISS, 0.001)
	assert.InDelta(t, 195.96, inv.ValorTotalImpostos, 0.001)
	assert.Equal(t, string(constants.Saude), inv.Categoria)
	assert.Equal(t, fixedClock(), inv.ProcessedAt)
}

func TestNormalizeFlatShape(t *testing.T) {
	n := newTestNormalizer()

	inv, _ := n.Normalize(map[string]any{
		"prestador_cnpj":      "X",
		"valor_total_servico": "1200.00",
		"aliquota":            "0,02",
	})
	assert.Equal(t, "X", inv.Prestador.TaxID)
	assert.InDelta(t, 1200.00, inv.ValorTotalServico, 0.001)
	assert.InDelta(t, 0.02, inv.Aliquota, 0.0001)
}

func TestNormalizeShapeEquivalence(t *testing.T) {
	n := newTestNormalizer()

	nested, _ := n.Normalize(map[string]any{"prestador": map[string]any{"cnpj": "X"}})
	flat, _ := n.Normalize(map[string]any{"prestador_cnpj": "X"})
	assert.Equal(t, nested.Prestador.TaxID, flat.Prestador.TaxID)
}

func TestNormalizeDefaults(t *testing.T) {
	n := newTestNormalizer()

	inv, _ := n.Normalize(map[string]any{})
	assert.Nil(t, inv.IssuedAt)
	assert.Equal(t, "", inv.IssuedAtString())
	assert.Zero(t, inv.ValorTotalServico)
	assert.Zero(t, inv.Aliquota)
	assert.Equal(t, "", inv.NumeroNota)
	assert.Equal(t, string(constants.Unclassified), inv.Categoria)
}

func TestNormalizeDegradedFieldsReportDiagnostics(t *testing.T) {
	n := newTestNormalizer()

	inv, diags := n.Normalize(map[string]any{
		"valor_total_servico": "not money",
		"aliquota":            "??",
		"data_hora_emissao":   "garbage",
	})
	assert.Zero(t, inv.ValorTotalServico)
	assert.Zero(t, inv.Aliquota)
	assert.Nil(t, inv.IssuedAt)

	fields := make([]string, 0, len(diags))
	for _, d := range diags {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"valor_total_servico", "aliquota", "data_hora_emissao"}, fields)
}

func TestNormalizeNeverPanics(t *testing.T) {
	n := newTestNormalizer()

	adversarial := []map[string]any{
		nil,
		{},
		{"prestador": "not a map"},
		{"prestador": map[string]any{"endereco": 42}},
		{"valores": []any{"wrong", "shape"}},
		{"valor_total_servico": map[string]any{"nested": "garbage"}},
		{"data_hora_emissao": 123456},
		{"categoria": map[string]any{"deep": map[string]any{"deeper": nil}}},
		{"numero_nota": nil, "aliquota": nil},
	}
	for _, raw := range adversarial {
		require.NotPanics(t, func() {
			inv, _ := n.Normalize(raw)
			// monetary invariant: non-null numeric, even for junk
			assert.GreaterOrEqual(t, inv.Aliquota, 0.0)
		})
	}
}

func TestNormalizeOCRFallbackText(t *testing.T) {
	n := newTestNormalizer()

	inv, _ := n.Normalize(map[string]any{"texto_extraido": "NOTA FISCAL 123 texto bruto"})
	assert.Equal(t, "NOTA FISCAL 123 texto bruto", inv.Discriminacao)
}

func TestNormalizePlaceholderStrings(t *testing.T) {
	n := newTestNormalizer()

	inv, _ := n.Normalize(map[string]any{
		"numero_nota":        "...",
		"codigo_verificacao": "   ",
	})
	assert.Equal(t, "", inv.NumeroNota)
	assert.Equal(t, "", inv.CodigoVerificacao)
}

func TestNormalizeUnknownCategoryKept(t *testing.T) {
	n := newTestNormalizer()

	inv, _ := n.Normalize(map[string]any{"categoria": "Energia Eólica"})
	assert.Equal(t, "Energia Eólica", inv.Categoria)
}
