package firestore_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/xraph/faktura/store"
	"github.com/xraph/faktura/store/firestore"
	"github.com/xraph/faktura/store/storetest"
)

// The suite runs against the Firestore emulator only.
func TestStore(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		// A project per subtest keeps the emulator data isolated.
		project := "faktura-" + strings.ToLower(strings.NewReplacer("/", "-", "_", "-").Replace(t.Name()))
		s, err := firestore.Open(context.Background(), project)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
