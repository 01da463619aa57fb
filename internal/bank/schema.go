// Package bank stores imported questions in SQLite with optional FTS5
// full-text search over question names, bodies and answers.
package bank

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS sources (
	path           TEXT PRIMARY KEY,
	checksum       TEXT NOT NULL DEFAULT '',
	question_count INTEGER NOT NULL DEFAULT 0,
	imported_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS questions (
	id                      TEXT PRIMARY KEY,
	source                  TEXT NOT NULL REFERENCES sources(path) ON DELETE CASCADE,
	position                INTEGER NOT NULL,
	kind                    TEXT NOT NULL,
	name                    TEXT NOT NULL DEFAULT '',
	body                    TEXT NOT NULL DEFAULT '',
	body_format             INTEGER NOT NULL DEFAULT 0,
	general_feedback        TEXT NOT NULL DEFAULT '',
	general_feedback_format INTEGER NOT NULL DEFAULT 0,
	default_mark            REAL NOT NULL DEFAULT 1,
	penalty                 REAL NOT NULL DEFAULT 0,
	usecase                 INTEGER NOT NULL DEFAULT 0,
	created_at              DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at              DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS answers (
	question_id     TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
	position        INTEGER NOT NULL,
	text            TEXT NOT NULL DEFAULT '',
	fraction        REAL NOT NULL DEFAULT 0,
	feedback        TEXT NOT NULL DEFAULT '',
	feedback_format INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (question_id, position)
);

CREATE INDEX IF NOT EXISTS idx_questions_source ON questions(source, position);
CREATE INDEX IF NOT EXISTS idx_questions_kind ON questions(kind);
`

// DB wraps a sql.DB with question-bank operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("bank: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bank: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bank: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bank: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
