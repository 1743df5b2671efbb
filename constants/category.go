package constants

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Category is the expense classification suggested by the extractor and editable by the reviewer.
type Category string

const (
	Tecnologia     Category = "Tecnologia"
	Marketing      Category = "Marketing"
	Saude          Category = "Saúde"
	Educacao       Category = "Educação"
	Juridico       Category = "Jurídico"
	Consultoria    Category = "Consultoria"
	Transporte     Category = "Transporte"
	ServicosGerais Category = "Serviços Gerais"

	// Unclassified is the explicit bucket assigned when no category survives cleanup,
	// so aggregation by category always has somewhere to put the record.
	Unclassified Category = "Sem categoria"
)

var allCategories = []Category{
	Tecnologia,
	Marketing,
	Saude,
	Educacao,
	Juridico,
	Consultoria,
	Transporte,
	ServicosGerais,
}

// AsStringSlice returns the taxonomy (without the Unclassified sentinel) for prompts.
func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases and strips diacritics so "Saúde", "saude" and "SAUDE" compare equal.
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// Canonicalize maps a free-text label onto the taxonomy. The second return reports
// whether the input matched; non-matching or blank input lands in Unclassified.
func Canonicalize(input string) (Category, bool) {
	normalized := Fold(input)
	if normalized == "" {
		return Unclassified, false
	}

	synonyms := map[string]Category{
		"ti":            Tecnologia,
		"software":      Tecnologia,
		"informatica":   Tecnologia,
		"publicidade":   Marketing,
		"propaganda":    Marketing,
		"medico":        Saude,
		"odontologia":   Saude,
		"clinica":       Saude,
		"advocacia":     Juridico,
		"advogado":      Juridico,
		"contabilidade": Consultoria,
		"assessoria":    Consultoria,
		"frete":         Transporte,
		"logistica":     Transporte,
		"servicos":      ServicosGerais,
		"servico":       ServicosGerais,
		"ensino":        Educacao,
		"treinamento":   Educacao,
		"curso":         Educacao,
	}
	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == Fold(string(cat)) {
			return cat, true
		}
	}
	return Unclassified, false
}
