package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nfse-labs/nfse-tracker/internal/export"
)

var (
	exportFormat string
	exportOut    string
	filterColumn string
	filterValue  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored invoices to XLSX or CSV",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "output format: xlsx or csv")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file path (default notas_fiscais.<format>)")
	exportCmd.Flags().StringVar(&filterColumn, "filter-column", "", "column to filter on")
	exportCmd.Flags().StringVar(&filterValue, "filter", "", "substring the filter column must contain")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "xlsx" && exportFormat != "csv" {
		return fmt.Errorf("unknown format %q, want xlsx or csv", exportFormat)
	}
	if exportOut == "" {
		exportOut = "notas_fiscais." + exportFormat
	}

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

	svc := export.NewService(repo, cfg.Export.SheetName, nil)
	var data []byte
	switch exportFormat {
	case "xlsx":
		data, err = svc.ExportXLSX(ctx, filterColumn, filterValue)
	case "csv":
		data, err = svc.ExportCSV(ctx, filterColumn, filterValue)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(exportOut, data, 0o644); err != nil {
		return err
	}
	cmd.Printf("Wrote %s\n", exportOut)
	return nil
}
