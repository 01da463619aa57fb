// Package testutil provides shared test helpers for setting up workspaces,
// question banks and services.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/glossaryqf/internal/bank"
	"github.com/starford/glossaryqf/internal/bankservice"
	"github.com/starford/glossaryqf/internal/glossary"
	"github.com/starford/glossaryqf/internal/storage"
)

// TestBank creates a temporary question bank that is automatically cleaned up.
func TestBank(t *testing.T) *bank.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "glossaryqf-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := bank.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestWorkspace creates a temporary workspace directory with a storage.Provider.
func TestWorkspace(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestService wires a bank service over a fresh workspace and bank. Exported
// entries carry FULLMATCH=1 and the other flags 0.
func TestService(t *testing.T) (*bankservice.Service, *storage.FS) {
	t.Helper()
	_, store := TestWorkspace(t)
	exp := glossary.NewExporter(glossary.StaticSettings{
		glossary.SettingLinkEntries:   "0",
		glossary.SettingCaseSensitive: "0",
		glossary.SettingFullMatch:     "1",
	})
	return bankservice.NewService(store, TestBank(t), exp, glossary.NewImporter()), store
}
