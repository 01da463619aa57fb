package bank

import (
	"errors"
	"os"
	"testing"

	"github.com/starford/glossaryqf/internal/apperr"
	"github.com/starford/glossaryqf/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "glossaryqf-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func question(body string, answers ...string) models.Question {
	q := models.DefaultQuestion()
	q.Name = body
	q.Body = body
	q.BodyFormat = models.FormatHTML
	for _, a := range answers {
		q.Answers = append(q.Answers, models.Answer{
			Text:     a,
			Fraction: 1,
			Feedback: models.FormattedText{Format: models.FormatPlain},
		})
	}
	return q
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"sources", "questions", "answers"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestReplaceSource_AssignsIDsAndKeepsOrder(t *testing.T) {
	db := testDB(t)
	stored, err := db.ReplaceSource("capitals.xml", "abc", []models.Question{
		question("Capital of France", "Paris", "Lutetia"),
		question("Capital of Italy", "Rome"),
	})
	if err != nil {
		t.Fatalf("ReplaceSource: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored %d questions, want 2", len(stored))
	}
	for _, q := range stored {
		if q.ID == "" || q.Source != "capitals.xml" || q.CreatedAt.IsZero() {
			t.Errorf("unexpected stored question %+v", q)
		}
	}

	all, err := db.AllQuestions("capitals.xml")
	if err != nil {
		t.Fatalf("AllQuestions: %v", err)
	}
	if len(all) != 2 || all[0].Body != "Capital of France" || all[1].Body != "Capital of Italy" {
		t.Fatalf("unexpected order: %+v", all)
	}
	if len(all[0].Answers) != 2 || all[0].Answers[0].Text != "Paris" || all[0].Answers[1].Text != "Lutetia" {
		t.Errorf("answers = %+v", all[0].Answers)
	}
	if all[0].BodyFormat != models.FormatHTML || all[0].Answers[0].Feedback.Format != models.FormatPlain {
		t.Errorf("formats not preserved: %+v", all[0])
	}
}

func TestReplaceSource_ReplacesPreviousQuestions(t *testing.T) {
	db := testDB(t)
	_, _ = db.ReplaceSource("a.xml", "1", []models.Question{question("old", "x"), question("older", "y")})
	_, err := db.ReplaceSource("a.xml", "2", []models.Question{question("new", "z")})
	if err != nil {
		t.Fatalf("ReplaceSource: %v", err)
	}

	all, _ := db.AllQuestions("a.xml")
	if len(all) != 1 || all[0].Body != "new" {
		t.Errorf("questions = %+v", all)
	}
	cs, _ := db.SourceChecksums()
	if cs["a.xml"] != "2" {
		t.Errorf("checksum = %q, want 2", cs["a.xml"])
	}
	var answers int
	_ = db.conn.QueryRow(`SELECT count(*) FROM answers`).Scan(&answers)
	if answers != 1 {
		t.Errorf("answers rows = %d, want 1", answers)
	}
}

func TestReplaceSource_EmptyDocumentRecordsSource(t *testing.T) {
	db := testDB(t)
	if _, err := db.ReplaceSource("empty.xml", "e", nil); err != nil {
		t.Fatalf("ReplaceSource: %v", err)
	}
	sources, err := db.Sources()
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	if len(sources) != 1 || sources[0].Path != "empty.xml" || sources[0].QuestionCount != 0 {
		t.Errorf("sources = %+v", sources)
	}
}

func TestDeleteSource(t *testing.T) {
	db := testDB(t)
	stored, _ := db.ReplaceSource("del.xml", "x", []models.Question{question("gone", "a")})

	if err := db.DeleteSource("del.xml"); err != nil {
		t.Fatalf("DeleteSource: %v", err)
	}
	if _, err := db.GetQuestion(stored[0].ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("question survived delete: %v", err)
	}
	if err := db.DeleteSource("del.xml"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestGetQuestion(t *testing.T) {
	db := testDB(t)
	stored, _ := db.ReplaceSource("g.xml", "g", []models.Question{question("body", "one", "two")})

	q, err := db.GetQuestion(stored[0].ID)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if q.Body != "body" || len(q.Answers) != 2 || q.DefaultMark != 1 {
		t.Errorf("question = %+v", q)
	}
	if _, err := db.GetQuestion("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListQuestions_FilterAndPaging(t *testing.T) {
	db := testDB(t)
	_, _ = db.ReplaceSource("a.xml", "1", []models.Question{question("a1", "x"), question("a2", "x"), question("a3", "x")})
	_, _ = db.ReplaceSource("b.xml", "2", []models.Question{question("b1", "x")})

	items, total, err := db.ListQuestions(ListFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if total != 4 || len(items) != 2 || items[0].Body != "a1" {
		t.Errorf("total=%d items=%+v", total, items)
	}

	items, total, _ = db.ListQuestions(ListFilter{Source: "a.xml", Offset: 2})
	if total != 3 || len(items) != 1 || items[0].Body != "a3" {
		t.Errorf("total=%d items=%+v", total, items)
	}

	_, total, _ = db.ListQuestions(ListFilter{Kind: models.KindEssay})
	if total != 0 {
		t.Errorf("essay total = %d, want 0", total)
	}
}

func TestAllQuestions_EverySource(t *testing.T) {
	db := testDB(t)
	_, _ = db.ReplaceSource("b.xml", "2", []models.Question{question("b1", "x")})
	_, _ = db.ReplaceSource("a.xml", "1", []models.Question{question("a1", "x")})

	all, err := db.AllQuestions("")
	if err != nil {
		t.Fatalf("AllQuestions: %v", err)
	}
	if len(all) != 2 || all[0].Source != "a.xml" {
		t.Errorf("all = %+v", all)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_, _ = db.ReplaceSource("s.xml", "1", []models.Question{question("uniqueword appears here", "term")})

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Source != "s.xml" {
		t.Errorf("search results = %+v, want 1 hit for s.xml", results)
	}
}

func TestSearch_MatchesAnswers(t *testing.T) {
	db := testDB(t)
	_, _ = db.ReplaceSource("s.xml", "1", []models.Question{question("Capital of France", "Lutetia")})

	results, err := db.Search("Lutetia", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected alias hit, got %+v", results)
	}
}

func TestReplaceSource_StableIDs(t *testing.T) {
	db := testDB(t)
	first, err := db.ReplaceSource("capitals.xml", "1", []models.Question{
		question("Capital of France", "Paris"),
		question("Capital of Italy", "Rome"),
	})
	if err != nil {
		t.Fatalf("ReplaceSource: %v", err)
	}
	second, err := db.ReplaceSource("capitals.xml", "2", []models.Question{
		question("Capital of France", "Paris", "Lutetia"),
		question("Capital of Italy", "Rome"),
	})
	if err != nil {
		t.Fatalf("ReplaceSource: %v", err)
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("question %d id changed: %s -> %s", i, first[i].ID, second[i].ID)
		}
	}
	if first[0].ID == first[1].ID {
		t.Error("positions must get distinct ids")
	}
	if QuestionID("capitals.xml", 0) == QuestionID("other.xml", 0) {
		t.Error("sources must get distinct ids")
	}
	if _, err := db.GetQuestion(first[0].ID); err != nil {
		t.Errorf("GetQuestion after re-import: %v", err)
	}
}

func TestSourceChecksum(t *testing.T) {
	db := testDB(t)
	if cs, err := db.SourceChecksum("none.xml"); err != nil || cs != "" {
		t.Errorf("unknown source = %q, %v", cs, err)
	}
	_, _ = db.ReplaceSource("a.xml", "abc", []models.Question{question("d", "c")})
	if cs, err := db.SourceChecksum("a.xml"); err != nil || cs != "abc" {
		t.Errorf("checksum = %q, %v", cs, err)
	}
}
