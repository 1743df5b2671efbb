package entity

import "time"

// DateTimeLayout is the canonical issuance-datetime representation.
const DateTimeLayout = "2006-01-02 15:04:05"

// Address holds the address components shared by both parties.
type Address struct {
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	CEP        string `json:"cep"`
	Cidade     string `json:"cidade"`
	UF         string `json:"uf"`
}

// Party is one side of the invoice: the service provider (prestador) or the
// recipient (tomador). TaxID carries a CNPJ for providers and a CPF for recipients.
type Party struct {
	TaxID              string  `json:"tax_id"`
	RazaoSocial        string  `json:"razao_social"`
	InscricaoMunicipal string  `json:"inscricao_municipal,omitempty"`
	Email              string  `json:"email,omitempty"`
	Address            Address `json:"endereco"`
}

// Invoice is the canonical, typed record produced by normalization. Monetary fields
// and the rate are never nil: unparseable input degrades to 0. IssuedAt is the one
// nullable field; an unknown issuance date is meaningful and preserved as nil.
type Invoice struct {
	Hash        string    `json:"hash"`
	Arquivo     string    `json:"arquivo"`
	ProcessedAt time.Time `json:"data_processamento"`

	NumeroNota        string     `json:"numero_nota"`
	IssuedAt          *time.Time `json:"data_hora_emissao"`
	CodigoVerificacao string     `json:"codigo_verificacao"`

	Prestador Party `json:"prestador"`
	Tomador   Party `json:"tomador"`

	Discriminacao    string `json:"discriminacao_servicos"`
	ServicoCodigo    string `json:"servico_codigo"`
	ServicoDescricao string `json:"servico_descricao"`

	ValorTotalServico  float64 `json:"valor_total_servico"`
	BaseCalculo        float64 `json:"base_calculo"`
	Aliquota           float64 `json:"aliquota"` // fraction in [0,1], not a percentage
	ValorISS           float64 `json:"valor_iss"`
	ValorTotalImpostos float64 `json:"valor_total_impostos"`

	// Itemized withheld taxes, present only in later extraction-schema versions.
	ValorPIS           float64 `json:"valor_pis"`
	ValorCOFINS        float64 `json:"valor_cofins"`
	ValorCSLL          float64 `json:"valor_csll"`
	ValorIRRF          float64 `json:"valor_irrf"`
	ValorINSS          float64 `json:"valor_inss"`
	ValorDeducoes      float64 `json:"valor_deducoes"`
	ValorCredito       float64 `json:"valor_credito"`
	ValorRetencaoFonte float64 `json:"valor_retencao_fonte"`

	Categoria string `json:"categoria"`
}

// IssuedAtString renders the issuance datetime in the canonical layout, or "" when unknown.
func (i *Invoice) IssuedAtString() string {
	if i.IssuedAt == nil {
		return ""
	}
	return i.IssuedAt.Format(DateTimeLayout)
}
