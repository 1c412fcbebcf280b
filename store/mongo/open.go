package mongo

import (
	"context"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
)

// Open connects to MongoDB at uri. The database is taken from the URI path
// unless database is set.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	var opts []mongodriver.MongoOption
	if database != "" {
		opts = append(opts, mongodriver.WithDatabase(database))
	}
	drv := mongodriver.New()
	if err := drv.Open(ctx, uri, opts...); err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("faktura/mongo: %w", err)
	}
	db, err := grove.Open(drv)
	if err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("faktura/mongo: %w", err)
	}
	return New(db), nil
}
