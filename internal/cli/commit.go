package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nfse-labs/nfse-tracker/internal/pipeline"
)

var commitCmd = &cobra.Command{
	Use:   "commit <staged-batch.json>",
	Short: "Persist a previously staged batch",
	Long: `Reads a staged batch produced by "nfse-tracker ingest --stage-out", after any
manual corrections, and upserts the staged invoices.`,
	Args: cobra.ExactArgs(1),
	RunE: runCommit,
}

func init() {
	rootCmd.AddCommand(commitCmd)
}

func runCommit(cmd *cobra.Command, args []string) error {
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

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var outcomes []pipeline.FileOutcome
	if err := json.Unmarshal(data, &outcomes); err != nil {
		return fmt.Errorf("decode staged batch: %w", err)
	}

	coord := newCoordinator(cfg, repo)
	sum, err := coord.CommitBatch(ctx, outcomes)
	if err != nil {
		return err
	}
	printOutcomes(cmd, outcomes)
	printSummary(cmd, sum)
	return nil
}
