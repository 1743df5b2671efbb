package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nfse-labs/nfse-tracker/constants"
	"github.com/nfse-labs/nfse-tracker/internal/entity"
	"github.com/nfse-labs/nfse-tracker/internal/ingest"
	"github.com/nfse-labs/nfse-tracker/internal/pipeline"
)

var (
	ingestStageOut   string
	ingestSkipHidden bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <directory-or-files...>",
	Short: "Process invoice documents and persist new ones",
	Long: `Hashes each document, skips content already stored, extracts and normalizes
the rest, then commits the batch. With --stage-out the commit is skipped and the
staged batch is written to a JSON file for review; commit it later with
"nfse-tracker commit".`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestStageOut, "stage-out", "", "write staged batch to this JSON file instead of committing")
	ingestCmd.Flags().BoolVar(&ingestSkipHidden, "skip-hidden", true, "ignore hidden files and directories")
	rootCmd.AddCommand(ingestCmd)
}

func collectArgs(args []string) ([]entity.SourceDocument, error) {
	var docs []entity.SourceDocument
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			found, err := ingest.CollectDocuments(arg, ingestSkipHidden)
			if err != nil {
				return nil, err
			}
			docs = append(docs, found...)
			continue
		}
		docs = append(docs, entity.NewFileDocument(arg))
	}
	return docs, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
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

	docs, err := collectArgs(args)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		cmd.Println("No processable documents found.")
		return nil
	}

	coord := newCoordinator(cfg, repo)
	outcomes, err := coord.IngestBatch(ctx, docs)
	if err != nil {
		return err
	}

	if ingestStageOut != "" {
		if err := writeStagedBatch(ingestStageOut, outcomes); err != nil {
			return err
		}
		printOutcomes(cmd, outcomes)
		cmd.Printf("Staged batch written to %s; review and run \"nfse-tracker commit %s\".\n", ingestStageOut, ingestStageOut)
		return nil
	}

	sum, err := coord.CommitBatch(ctx, outcomes)
	if err != nil {
		return err
	}
	printOutcomes(cmd, outcomes)
	printSummary(cmd, sum)
	return nil
}

func writeStagedBatch(path string, outcomes []pipeline.FileOutcome) error {
	data, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return fmt.Errorf("encode staged batch: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func printOutcomes(cmd *cobra.Command, outcomes []pipeline.FileOutcome) {
	for _, o := range outcomes {
		switch o.Status {
		case constants.FileStaged, constants.FilePersisted:
			cmd.Printf("%-18s %s\n", o.Status, o.Filename)
		default:
			cmd.Printf("%-18s %s (%s)\n", o.Status, o.Filename, o.Reason)
		}
		for _, d := range o.Diagnostics {
			cmd.Printf("    %s: %s\n", d.Field, d.Reason)
		}
	}
}

func printSummary(cmd *cobra.Command, sum pipeline.Summary) {
	cmd.Printf("\n%d persisted, %d failed, %d skipped\n", sum.Persisted, sum.Failed, sum.Skipped)
	if sum.Persisted > 0 {
		cmd.Printf("Total value: R$ %.2f  ISS: R$ %.2f  Taxes: R$ %.2f\n", sum.TotalValue, sum.TotalISS, sum.TotalTaxes)
	}
}
