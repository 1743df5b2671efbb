package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nfse-labs/nfse-tracker/constants"
)

func TestInvoicePromptListsCategoryTaxonomy(t *testing.T) {
	for _, c := range constants.AsStringSlice() {
		require.Contains(t, invoicePrompt, c)
	}
	require.NotContains(t, invoicePrompt, "{{categorias}}")
	require.NotContains(t, invoicePrompt, string(constants.Unclassified))
}
