// Package redis implements numbering.Counter on Redis INCR.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/faktura/document"
	"github.com/xraph/faktura/numbering"
)

const defaultPrefix = "faktura:seq:"

// Counter hands out sequence numbers from Redis. INCR is atomic on the
// server, so concurrent creators never observe the same value.
type Counter struct {
	client goredis.UniversalClient
	prefix string
}

var _ numbering.Counter = (*Counter)(nil)

// Option configures a Counter.
type Option func(*Counter)

// WithKeyPrefix overrides the key namespace (default "faktura:seq:").
func WithKeyPrefix(prefix string) Option {
	return func(c *Counter) { c.prefix = prefix }
}

// New wraps an existing client.
func New(client goredis.UniversalClient, opts ...Option) *Counter {
	c := &Counter{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials addr and pings it before returning the Counter.
func Connect(ctx context.Context, addr, password string, db int, opts ...Option) (*Counter, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close() //nolint:errcheck // best-effort cleanup after failed ping
		return nil, fmt.Errorf("faktura/redis: connect %s: %w", addr, err)
	}

	return New(client, opts...), nil
}

// Next implements numbering.Counter.
func (c *Counter) Next(ctx context.Context, tenantID string, docType document.Type, year int) (int64, error) {
	seq, err := c.client.Incr(ctx, c.prefix+numbering.Key(tenantID, docType, year)).Result()
	if err != nil {
		return 0, fmt.Errorf("faktura/redis: next %s %s: %w", tenantID, docType, err)
	}
	return seq, nil
}

// Close closes the underlying client.
func (c *Counter) Close() error { return c.client.Close() }
