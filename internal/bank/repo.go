package bank

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/glossaryqf/internal/apperr"
	"github.com/starford/glossaryqf/internal/models"
)

// ListFilter narrows ListQuestions. Zero values match everything.
type ListFilter struct {
	Source string
	Kind   models.Kind
	Limit  int
	Offset int
}

// SearchResult represents one search hit.
type SearchResult struct {
	QuestionID string `json:"question_id"`
	Source     string `json:"source"`
	Name       string `json:"name"`
	Snippet    string `json:"snippet"`
}

const questionColumns = `id, source, kind, name, body, body_format,
	general_feedback, general_feedback_format, default_mark, penalty, usecase,
	created_at, updated_at`

// ReplaceSource swaps every question stored for path with questions, in one
// transaction. Questions without an ID get one derived from path and
// position, so re-importing a document keeps its IDs. The stored questions
// are returned in input order.
func (db *DB) ReplaceSource(path, checksum string, questions []models.Question) ([]models.Question, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("bank: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	now := time.Now().UTC()

	if err := ftsDeleteSource(tx, path); err != nil {
		return nil, err
	}
	if err := deleteSourceRows(tx, path); err != nil {
		return nil, err
	}

	_, err = tx.Exec(`
		INSERT INTO sources (path, checksum, question_count, imported_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum       = excluded.checksum,
			question_count = excluded.question_count,
			imported_at    = excluded.imported_at
	`, path, checksum, len(questions), now)
	if err != nil {
		return nil, fmt.Errorf("bank: upsert source: %w", err)
	}

	qStmt, err := tx.Prepare(`
		INSERT INTO questions (` + questionColumns + `, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("bank: prepare question insert: %w", err)
	}
	defer qStmt.Close()

	aStmt, err := tx.Prepare(`
		INSERT INTO answers (question_id, position, text, fraction, feedback, feedback_format)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("bank: prepare answer insert: %w", err)
	}
	defer aStmt.Close()

	out := make([]models.Question, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			q.ID = QuestionID(path, i)
		}
		q.Source = path
		if q.CreatedAt.IsZero() {
			q.CreatedAt = now
		}
		q.UpdatedAt = now

		if _, err := qStmt.Exec(q.ID, q.Source, string(q.Kind), q.Name, q.Body, int(q.BodyFormat),
			q.GeneralFeedback.Text, int(q.GeneralFeedback.Format), q.DefaultMark, q.Penalty, q.UseCase,
			q.CreatedAt, q.UpdatedAt, i); err != nil {
			return nil, fmt.Errorf("bank: insert question %d: %w", i, err)
		}
		for j, a := range q.Answers {
			if _, err := aStmt.Exec(q.ID, j, a.Text, a.Fraction, a.Feedback.Text, int(a.Feedback.Format)); err != nil {
				return nil, fmt.Errorf("bank: insert answer %d of question %d: %w", j, i, err)
			}
		}
		if err := ftsUpsert(tx, q); err != nil {
			return nil, err
		}
		out[i] = q
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("bank: commit: %w", err)
	}
	return out, nil
}

// idNamespace scopes the name-based question IDs.
var idNamespace = uuid.MustParse("6f1d4c3e-8a0b-5c2e-9f47-3b1a2d6e0c95")

// QuestionID returns the stable ID of the question at position in the
// document stored at path.
func QuestionID(path string, position int) string {
	return uuid.NewSHA1(idNamespace, []byte(path+"\x00"+strconv.Itoa(position))).String()
}

// DeleteSource removes a source together with its questions and answers.
// It returns apperr.ErrNotFound when nothing was stored for path.
func (db *DB) DeleteSource(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("bank: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDeleteSource(tx, path); err != nil {
		return err
	}
	if err := deleteSourceRows(tx, path); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM sources WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("bank: delete source: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return tx.Commit()
}

func deleteSourceRows(tx *sql.Tx, path string) error {
	if _, err := tx.Exec(`DELETE FROM answers WHERE question_id IN (SELECT id FROM questions WHERE source = ?)`, path); err != nil {
		return fmt.Errorf("bank: delete answers: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM questions WHERE source = ?`, path); err != nil {
		return fmt.Errorf("bank: delete questions: %w", err)
	}
	return nil
}

// Sources lists every imported source ordered by path.
func (db *DB) Sources() ([]models.Source, error) {
	rows, err := db.conn.Query(`SELECT path, checksum, question_count, imported_at FROM sources ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("bank: sources: %w", err)
	}
	defer rows.Close()

	var out []models.Source
	for rows.Next() {
		var s models.Source
		if err := rows.Scan(&s.Path, &s.Checksum, &s.QuestionCount, &s.ImportedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SourceChecksums maps every source path to the checksum it was imported at.
func (db *DB) SourceChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM sources`)
	if err != nil {
		return nil, fmt.Errorf("bank: source checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// SourceChecksum returns the checksum stored for path, or "" when path was
// never imported.
func (db *DB) SourceChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM sources WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("bank: source checksum: %w", err)
	}
	return cs, nil
}

// GetQuestion returns a question with its answers, or apperr.ErrNotFound.
func (db *DB) GetQuestion(id string) (*models.Question, error) {
	row := db.conn.QueryRow(`SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bank: get question: %w", err)
	}
	qs := []models.Question{q}
	if err := db.attachAnswers(qs); err != nil {
		return nil, err
	}
	return &qs[0], nil
}

// ListQuestions returns a page of questions in source/document order along
// with the total number of matches.
func (db *DB) ListQuestions(f ListFilter) ([]models.Question, int, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var where []string
	var args []any
	if f.Source != "" {
		where = append(where, "source = ?")
		args = append(args, f.Source)
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM questions`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("bank: count questions: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+questionColumns+` FROM questions`+clause+
		` ORDER BY source, position LIMIT ? OFFSET ?`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("bank: list questions: %w", err)
	}
	qs, err := collectQuestions(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := db.attachAnswers(qs); err != nil {
		return nil, 0, err
	}
	return qs, total, nil
}

// AllQuestions returns every question of source in document order, or every
// stored question when source is empty.
func (db *DB) AllQuestions(source string) ([]models.Question, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if source == "" {
		rows, err = db.conn.Query(`SELECT ` + questionColumns + ` FROM questions ORDER BY source, position`)
	} else {
		rows, err = db.conn.Query(`SELECT `+questionColumns+` FROM questions WHERE source = ? ORDER BY position`, source)
	}
	if err != nil {
		return nil, fmt.Errorf("bank: all questions: %w", err)
	}
	qs, err := collectQuestions(rows)
	if err != nil {
		return nil, err
	}
	if err := db.attachAnswers(qs); err != nil {
		return nil, err
	}
	return qs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(s scanner) (models.Question, error) {
	var (
		q                    models.Question
		kind                 string
		bodyFormat, fbFormat int
	)
	err := s.Scan(&q.ID, &q.Source, &kind, &q.Name, &q.Body, &bodyFormat,
		&q.GeneralFeedback.Text, &fbFormat, &q.DefaultMark, &q.Penalty, &q.UseCase,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return q, err
	}
	q.Kind = models.Kind(kind)
	q.BodyFormat = models.TextFormat(bodyFormat)
	q.GeneralFeedback.Format = models.TextFormat(fbFormat)
	return q, nil
}

func collectQuestions(rows *sql.Rows) ([]models.Question, error) {
	defer rows.Close()
	var out []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("bank: scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// answerBatch keeps IN lists well below SQLite's bound-parameter limit.
const answerBatch = 500

// attachAnswers loads answers for qs in place, preserving answer order.
func (db *DB) attachAnswers(qs []models.Question) error {
	byID := make(map[string]int, len(qs))
	for i := range qs {
		byID[qs[i].ID] = i
		qs[i].Answers = []models.Answer{}
	}

	for start := 0; start < len(qs); start += answerBatch {
		end := min(start+answerBatch, len(qs))
		ids := make([]any, 0, end-start)
		for _, q := range qs[start:end] {
			ids = append(ids, q.ID)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

		rows, err := db.conn.Query(`
			SELECT question_id, text, fraction, feedback, feedback_format
			FROM answers
			WHERE question_id IN (`+placeholders+`)
			ORDER BY question_id, position
		`, ids...)
		if err != nil {
			return fmt.Errorf("bank: load answers: %w", err)
		}
		for rows.Next() {
			var (
				qid    string
				a      models.Answer
				format int
			)
			if err := rows.Scan(&qid, &a.Text, &a.Fraction, &a.Feedback.Text, &format); err != nil {
				rows.Close()
				return fmt.Errorf("bank: scan answer: %w", err)
			}
			a.Feedback.Format = models.TextFormat(format)
			i := byID[qid]
			qs[i].Answers = append(qs[i].Answers, a)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
	}
	return nil
}
