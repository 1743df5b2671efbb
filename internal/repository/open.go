package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfse-labs/nfse-tracker/internal/common"
)

// Open dispatches on the configured driver.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (InvoiceRepository, error) {
	switch cfg.Driver {
	case "postgres":
		return OpenPostgres(ctx, cfg, logger)
	case "sqlite":
		return OpenSQLite(ctx, cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("%w: unsupported database driver %q", common.ErrInvalidInput, cfg.Driver)
	}
}
