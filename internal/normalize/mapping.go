package normalize

import "strings"

// A lookup path is a sequence of keys descended through nested maps. The mapping
// table below gives every canonical field an ordered list of candidate paths, one
// per historical extraction-schema shape: the nested shape the vision prompt asks
// for, the flat spreadsheet vocabulary of the earlier pipeline, and assorted
// aliases seen in model output. The first candidate resolving to a non-empty value
// wins; normalization logic itself is written once, against this table.
type path []string

func p(keys ...string) path { return keys }

var fieldPaths = map[string][]path{
	"numero_nota": {
		p("numero_nota"), p("numeroNota"), p("numero"), p("nota", "numero"),
	},
	"data_hora_emissao": {
		p("data_hora_emissao"), p("data_emissao"), p("dataHoraEmissao"), p("emissao"),
	},
	"codigo_verificacao": {
		p("codigo_verificacao"), p("codigoVerificacao"), p("codigo_de_verificacao"),
	},

	"prestador_cnpj": {
		p("prestador", "cnpj"), p("prestador_cnpj"), p("cnpj_prestador"), p("cnpj"),
	},
	"prestador_razao_social": {
		p("prestador", "razao_social"), p("prestador_razao_social"), p("prestador", "nome"),
	},
	"prestador_inscricao_municipal": {
		p("prestador", "inscricao_municipal"), p("prestador_inscricao_municipal"),
	},
	"prestador_logradouro": {
		p("prestador", "endereco", "logradouro"), p("prestador_logradouro"), p("prestador", "logradouro"),
	},
	"prestador_bairro": {
		p("prestador", "endereco", "bairro"), p("prestador_bairro"), p("prestador", "bairro"),
	},
	"prestador_cep": {
		p("prestador", "endereco", "cep"), p("prestador_cep"), p("prestador", "cep"),
	},
	"prestador_cidade": {
		p("prestador", "endereco", "cidade"), p("prestador_cidade"), p("prestador", "cidade"),
	},
	"prestador_uf": {
		p("prestador", "endereco", "uf"), p("prestador_uf"), p("prestador", "uf"),
	},

	"tomador_cpf": {
		p("tomador", "cpf"), p("tomador_cpf"), p("tomador", "cnpj"), p("tomador_cnpj"), p("cpf"),
	},
	"tomador_razao_social": {
		p("tomador", "razao_social"), p("tomador_razao_social"), p("tomador", "nome"),
	},
	"tomador_email": {
		p("tomador", "email"), p("tomador_email"), p("email"),
	},
	"tomador_logradouro": {
		p("tomador", "endereco", "logradouro"), p("tomador_logradouro"), p("tomador", "logradouro"),
	},
	"tomador_bairro": {
		p("tomador", "endereco", "bairro"), p("tomador_bairro"), p("tomador", "bairro"),
	},
	"tomador_cep": {
		p("tomador", "endereco", "cep"), p("tomador_cep"), p("tomador", "cep"),
	},
	"tomador_cidade": {
		p("tomador", "endereco", "cidade"), p("tomador_cidade"), p("tomador", "cidade"),
	},
	"tomador_uf": {
		p("tomador", "endereco", "uf"), p("tomador_uf"), p("tomador", "uf"),
	},

	"discriminacao_servicos": {
		p("servico", "discriminacao"), p("discriminacao_servicos"), p("discriminacao"),
		p("texto_extraido"), // OCR-only fallback result carries raw text here
	},
	"servico_codigo": {
		p("servico", "codigo"), p("servico_codigo"), p("codigo_servico"),
	},
	"servico_descricao": {
		p("servico", "descricao"), p("servico_descricao"),
	},

	"valor_total_servico": {
		p("valores", "total_servico"), p("valor_total_servico"), p("valores", "valor_total_servico"),
		p("valor_servico"), p("valor_total"),
	},
	"base_calculo": {
		p("valores", "base_calculo"), p("base_calculo"),
	},
	"aliquota": {
		p("valores", "aliquota"), p("aliquota"),
	},
	"valor_iss": {
		p("valores", "valor_iss"), p("valor_iss"), p("valores", "iss"), p("iss"),
	},
	"valor_total_impostos": {
		p("valor_total_impostos"), p("valores", "valor_total_impostos"), p("total_impostos"),
	},

	"valor_pis": {
		p("valores", "pis"), p("valor_pis"), p("pis"),
	},
	"valor_cofins": {
		p("valores", "cofins"), p("valor_cofins"), p("cofins"),
	},
	"valor_csll": {
		p("valores", "csll"), p("valor_csll"), p("csll"),
	},
	"valor_irrf": {
		p("valores", "irrf"), p("valor_irrf"), p("irrf"),
	},
	"valor_inss": {
		p("valores", "inss"), p("valor_inss"), p("inss"),
	},
	"valor_deducoes": {
		p("valores", "deducoes"), p("valor_deducoes"), p("deducoes"),
	},
	"valor_credito": {
		p("valores", "credito"), p("valor_credito"), p("credito"),
	},
	"valor_retencao_fonte": {
		p("valores", "retencao_fonte"), p("valor_retencao_fonte"), p("retencao_fonte"),
	},

	"categoria": {
		p("categoria"), p("category"),
	},
}

// resolve descends a single candidate path through nested maps.
func resolve(raw map[string]any, pth path) (any, bool) {
	var cur any = raw
	for _, key := range pth {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// lookup returns the first candidate value for a canonical field that resolves to
// something non-nil and non-blank.
func lookup(raw map[string]any, field string) (any, bool) {
	for _, pth := range fieldPaths[field] {
		v, ok := resolve(raw, pth)
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}
