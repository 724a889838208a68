// Package testutil provides shared test helpers for vocabulary directories
// and snapshot databases.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/wordhop/internal/index"
	"github.com/starford/wordhop/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "wordhop-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVocabularies creates a temporary vocabulary directory holding files
// (name → contents) and returns it with a storage.Provider.
func TestVocabularies(t *testing.T, files map[string]string) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	for name, body := range files {
		if err := store.Write(name, []byte(body)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir, store
}

// SyncedDB returns a database with files already indexed.
func SyncedDB(t *testing.T, files map[string]string) (*index.DB, storage.Provider) {
	t.Helper()
	_, store := TestVocabularies(t, files)
	db := TestDB(t)
	if err := index.Sync(context.Background(), db, store, Logger()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	return db, store
}

// Logger returns a logger that discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
