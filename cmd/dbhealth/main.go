// Command dbhealth opens the configured store and pings it. Exit code 0 means
// the database is reachable.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nfse-labs/nfse-tracker/internal/common"
	"github.com/nfse-labs/nfse-tracker/internal/repository"
)

func main() {
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.Open(ctx, cfg.Database, slog.Default())
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.Ping(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "ping:", err)
		os.Exit(1)
	}
	fmt.Printf("%s ok\n", cfg.Database.Driver)
}
