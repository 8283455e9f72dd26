// Package testutil provides shared test helpers for entry directories and
// the link cache.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/daybook/internal/linkcache"
	"github.com/starford/daybook/internal/storage"
)

// TestCache creates a temporary link cache that is automatically cleaned up.
func TestCache(t *testing.T) *linkcache.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "daybook-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := linkcache.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestEntries creates a temporary entries directory with a storage.Provider.
func TestEntries(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteEntry writes content to name under dir, creating parent directories.
func WriteEntry(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
