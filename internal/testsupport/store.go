package testsupport

import (
	"context"
	"testing"

	"scribe/internal/catalog"
	"scribe/internal/config"
)

// MustOpenStore opens a catalog store against the test config's log
// directory and closes it when the test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open catalog store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close catalog store: %v", err)
		}
	})
	return store
}
