// Package repository persists extraction results for later inspection. The
// archive is optional: the service runs stateless when no DSN is set.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	// database/sql drivers: postgres via pgx, embedded default via sqlite.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Open connects to the archive store. A postgres:// DSN selects the pgx
// driver; anything else is treated as a sqlite path (":memory:" included).
// The driver name is returned so callers can pick the placeholder dialect.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*sql.DB, string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	driver := "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "pgx"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, driver, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, driver, fmt.Errorf("ping %s: %w", driver, err)
	}

	logger.Info("archive.connected", "driver", driver)
	return db, driver, nil
}
