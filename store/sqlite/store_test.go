package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/xraph/faktura/store"
	"github.com/xraph/faktura/store/sqlite"
	"github.com/xraph/faktura/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		ctx := context.Background()
		dsn := "file:" + filepath.Join(t.TempDir(), "faktura.db")

		s, err := sqlite.Open(ctx, dsn)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = s.Close() })

		if err := s.Migrate(ctx); err != nil {
			t.Fatal(err)
		}
		return s
	})
}

func TestMigrateTwice(t *testing.T) {
	ctx := context.Background()
	s, err := sqlite.Open(ctx, "file:"+filepath.Join(t.TempDir(), "faktura.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close() //nolint:errcheck // test cleanup

	for i := 0; i < 2; i++ {
		if err := s.Migrate(ctx); err != nil {
			t.Fatalf("migrate %d: %v", i+1, err)
		}
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestWithBusyTimeout(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"plain path", "file:a.db", "file:a.db?_pragma=busy_timeout(5000)"},
		{"existing query", "file:a.db?mode=rwc", "file:a.db?mode=rwc&_pragma=busy_timeout(5000)"},
		{"caller timeout kept", "file:a.db?_pragma=busy_timeout(100)", "file:a.db?_pragma=busy_timeout(100)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sqlite.WithBusyTimeout(tt.dsn, 5*time.Second); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
