package testsupport

import (
	"testing"

	"sitedrift/internal/config"
	"sitedrift/internal/tasks"
)

// MustOpenStore opens a tasks.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *tasks.Store {
	t.Helper()

	store, err := tasks.Open(cfg)
	if err != nil {
		t.Fatalf("tasks.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
