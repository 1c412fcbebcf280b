package ledgerexport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Sink receives a finished export. Put returns where the data ended up.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, name string, data []byte) (string, error)

// Put implements Sink.
func (f SinkFunc) Put(ctx context.Context, name string, data []byte) (string, error) {
	return f(ctx, name, data)
}

// DirSink writes exports as files into Dir.
type DirSink struct {
	Dir string
}

// Put implements Sink.
func (s DirSink) Put(_ context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return "", fmt.Errorf("ledgerexport: create %s: %w", s.Dir, err)
	}
	path := filepath.Join(s.Dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("ledgerexport: write %s: %w", path, err)
	}
	return path, nil
}

// FileName is the default name of a tenant's export created at stamp.
func FileName(tenantID, stamp string) string {
	return fmt.Sprintf("EXTF_Buchungsstapel_%s_%s.csv", tenantID, stamp)
}
