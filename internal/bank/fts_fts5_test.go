//go:build sqlite_fts5

package bank

import (
	"testing"

	"github.com/starford/glossaryqf/internal/models"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM questions_fts`).Scan(&count); err != nil {
		t.Fatalf("questions_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	_, err := db.ReplaceSource("fts.xml", "f1", []models.Question{
		question("A glossary provides powerful definitions for terms.", "glossary"),
	})
	if err != nil {
		t.Fatalf("ReplaceSource: %v", err)
	}

	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Source != "fts.xml" || results[0].Snippet == "" {
		t.Errorf("result = %+v", results[0])
	}
}

func TestFTS5_DeleteSourceRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_, _ = db.ReplaceSource("gone.xml", "g", []models.Question{question("vanishing content", "x")})
	_ = db.DeleteSource("gone.xml")

	results, _ := db.Search("vanishing", 10)
	if len(results) != 0 {
		t.Errorf("deleted source still in FTS index: %+v", results)
	}
}

func TestFTS5_ReplaceSourceReplacesContent(t *testing.T) {
	db := testDB(t)
	_, _ = db.ReplaceSource("evo.xml", "1", []models.Question{question("original text", "x")})
	_, _ = db.ReplaceSource("evo.xml", "2", []models.Question{question("replacement text", "x")})

	if results, _ := db.Search("original", 10); len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	if results, _ := db.Search("replacement", 10); len(results) != 1 {
		t.Errorf("FTS not updated: %+v", results)
	}
}
