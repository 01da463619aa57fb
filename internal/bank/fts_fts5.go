//go:build sqlite_fts5

package bank

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/glossaryqf/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS questions_fts USING fts5(
			question_id UNINDEXED,
			source UNINDEXED,
			name,
			body,
			answers,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, q models.Question) error {
	_, _ = tx.Exec(`DELETE FROM questions_fts WHERE question_id = ?`, q.ID)
	_, err := tx.Exec(`INSERT INTO questions_fts (question_id, source, name, body, answers) VALUES (?, ?, ?, ?, ?)`,
		q.ID, q.Source, q.Name, q.Body, answerTexts(q))
	if err != nil {
		return fmt.Errorf("bank: upsert fts: %w", err)
	}
	return nil
}

func ftsDeleteSource(tx *sql.Tx, source string) error {
	if _, err := tx.Exec(`DELETE FROM questions_fts WHERE source = ?`, source); err != nil {
		return fmt.Errorf("bank: delete fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search and returns matching questions with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT question_id,
		       source,
		       name,
		       snippet(questions_fts, 3, '<b>', '</b>', '...', 64)
		FROM questions_fts
		WHERE questions_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
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

func answerTexts(q models.Question) string {
	texts := make([]string, len(q.Answers))
	for i, a := range q.Answers {
		texts[i] = a.Text
	}
	return strings.Join(texts, " ")
}
