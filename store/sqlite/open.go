package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
)

// DefaultBusyTimeout is how long a connection waits for the write lock when
// the DSN does not say otherwise.
const DefaultBusyTimeout = 5 * time.Second

// Open connects to the SQLite database at dsn, e.g. "file:/var/lib/faktura.db".
//
// SQLite admits one writer at a time. Without a busy_timeout pragma a second
// writer fails at once with SQLITE_BUSY, which breaks the numbering counter
// under concurrent creates, so Open adds DefaultBusyTimeout to DSNs that set
// none. Pass "_pragma=busy_timeout(ms)" in the DSN to choose another value.
func Open(ctx context.Context, dsn string) (*Store, error) {
	drv := sqlitedriver.New()
	if err := drv.Open(ctx, WithBusyTimeout(dsn, DefaultBusyTimeout)); err != nil {
		return nil, fmt.Errorf("faktura/sqlite: %w", err)
	}
	db, err := grove.Open(drv)
	if err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("faktura/sqlite: %w", err)
	}
	return New(db), nil
}

// WithBusyTimeout appends a busy_timeout pragma to dsn unless it has one.
func WithBusyTimeout(dsn string, d time.Duration) string {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", dsn, sep, d.Milliseconds())
}
