package testutil

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/LizBugFree/network-monitor-demo/internal/config"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/logger"
	"github.com/LizBugFree/network-monitor-demo/internal/repository/docstore"
)

// NewTestStore opens a SQLite-backed document store in a temp directory
func NewTestStore(t *testing.T) docstore.Store {
	t.Helper()

	store, err := docstore.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// NewTestLogger returns a logger that discards output
func NewTestLogger() *logger.Logger {
	return logger.NewWriter(io.Discard, "error")
}
