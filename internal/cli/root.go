// Package cli holds the cobra commands exposed by cmd/nfse-tracker.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nfse-labs/nfse-tracker/internal/common"
	"github.com/nfse-labs/nfse-tracker/internal/extract"
	"github.com/nfse-labs/nfse-tracker/internal/normalize"
	"github.com/nfse-labs/nfse-tracker/internal/pipeline"
	"github.com/nfse-labs/nfse-tracker/internal/repository"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "nfse-tracker",
	Short:         "Extract, normalize and track NFS-e service invoices",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file overlaying environment settings")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func loadConfig() (*common.Config, error) {
	cfg := common.LoadConfig()
	if configPath != "" {
		if err := cfg.MergeFile(configPath); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openRepository(ctx context.Context, cfg *common.Config) (repository.InvoiceRepository, error) {
	return repository.Open(ctx, cfg.Database, slog.Default())
}

// newCoordinator assembles the extraction chain in preference order: vision
// model first, then the PDF text layer, then plain OCR.
func newCoordinator(cfg *common.Config, repo repository.InvoiceRepository) *pipeline.Coordinator {
	logger := slog.Default()
	ex := cfg.Extractor
	chain := extract.NewChain(logger,
		extract.NewOllamaVision(ex.OllamaURL, ex.Model, ex.Timeout, logger),
		extract.NewPDFText(logger),
		extract.NewImageOCR(ex.TesseractBin, ex.OCRLanguage, logger),
	)
	norm := normalize.New(logger)
	return pipeline.NewCoordinator(logger, repo, chain, norm, cfg.Pipeline)
}
