package cli

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfse-labs/nfse-tracker/internal/entity"
	"github.com/nfse-labs/nfse-tracker/internal/repository"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List stored invoices",
	RunE:  runRecords,
}

func init() {
	recordsCmd.Flags().StringVar(&filterColumn, "filter-column", "", "column to filter on: "+strings.Join(filterableColumnNames(), ", "))
	recordsCmd.Flags().StringVar(&filterValue, "filter", "", "substring the filter column must contain")
	rootCmd.AddCommand(recordsCmd)
}

func filterableColumnNames() []string {
	names := make([]string, 0, len(repository.FilterableColumns))
	for c := range repository.FilterableColumns {
		names = append(names, c)
	}
	sort.Strings(names)
	return names
}

func runRecords(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	var invoices []*entity.Invoice
	if filterColumn != "" {
		invoices, err = repo.FetchFiltered(ctx, filterColumn, filterValue)
	} else {
		invoices, err = repo.FetchAll(ctx)
	}
	if err != nil {
		return err
	}
	if len(invoices) == 0 {
		cmd.Println("No invoices stored.")
		return nil
	}

	cmd.Printf("%-12s %-20s %-30s %12s  %s\n", "NOTA", "EMISSÃO", "PRESTADOR", "VALOR", "CATEGORIA")
	for _, inv := range invoices {
		cmd.Printf("%-12s %-20s %-30s %12.2f  %s\n",
			inv.NumeroNota, inv.IssuedAtString(), truncate(inv.Prestador.RazaoSocial, 30),
			inv.ValorTotalServico, inv.Categoria)
	}
	cmd.Printf("\n%d invoice(s)\n", len(invoices))
	return nil
}

// truncate shortens display names; it counts runes so accented names are never
// cut mid-sequence.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
