package postgres

import (
	"context"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/driver"
	"github.com/xraph/grove/drivers/pgdriver"
)

// Open connects to PostgreSQL at dsn (a pgx URL or key/value string) with at
// most poolSize connections; zero keeps the pgx default.
func Open(ctx context.Context, dsn string, poolSize int) (*Store, error) {
	drv := pgdriver.New()
	if err := drv.Open(ctx, dsn, driver.WithPoolSize(poolSize)); err != nil {
		return nil, fmt.Errorf("faktura/postgres: %w", err)
	}
	db, err := grove.Open(drv)
	if err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("faktura/postgres: %w", err)
	}
	return New(db), nil
}
