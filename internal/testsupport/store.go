package testsupport

import (
	"testing"

	"llstore/internal/config"
	"llstore/internal/statestore"
	"llstore/internal/task"
)

// MustOpenState opens a statestore.Store for tests and registers cleanup.
func MustOpenState(t testing.TB, cfg *config.Config) *statestore.Store {
	t.Helper()

	store, err := statestore.Open(cfg)
	if err != nil {
		t.Fatalf("statestore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewApp builds package metadata for tests.
func NewApp(appID string) task.AppInfo {
	return task.AppInfo{
		AppID:   appID,
		Name:    appID,
		Version: "1.0.0",
		Channel: "main",
		Arch:    "x86_64",
	}
}
