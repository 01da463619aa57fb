//go:build !sqlite_fts5

package bank

import (
	"database/sql"
	"fmt"

	"github.com/starford/glossaryqf/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search falls back to LIKE over questions and answers.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ models.Question) error { return nil }

func ftsDeleteSource(_ *sql.Tx, _ string) error { return nil }

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT q.id, q.source, q.name, substr(q.body, 1, 200)
		FROM questions q
		WHERE q.name LIKE ? OR q.body LIKE ?
		   OR EXISTS (SELECT 1 FROM answers a WHERE a.question_id = q.id AND a.text LIKE ?)
		ORDER BY q.source, q.position
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("bank: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.QuestionID, &r.Source, &r.Name, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
