package bankservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/glossaryqf/internal/apperr"
	"github.com/starford/glossaryqf/internal/bank"
	"github.com/starford/glossaryqf/internal/checksum"
	"github.com/starford/glossaryqf/internal/glossary"
	"github.com/starford/glossaryqf/internal/models"
	"github.com/starford/glossaryqf/internal/storage"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) notify(kind, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+path)
}

func newTestService(t *testing.T) (*Service, *storage.FS, *recorder) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)

	f, err := os.CreateTemp("", "glossaryqf-svc-*.db")
	require.NoError(t, err)
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := bank.Open(f.Name())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rec := &recorder{}
	exp := glossary.NewExporter(glossary.StaticSettings{glossary.SettingFullMatch: "1"})
	svc := NewService(store, db, exp, glossary.NewImporter(), WithNotifier(rec.notify))
	return svc, store, rec
}

func shortAnswer(body string, answers ...string) models.Question {
	q := models.DefaultQuestion()
	q.Name = body
	q.Body = body
	for _, a := range answers {
		q.Answers = append(q.Answers, models.Answer{Text: a, Fraction: 1})
	}
	return q
}

func document(questions ...models.Question) []byte {
	return []byte(glossary.NewExporter(nil).WriteDocument(questions))
}

func TestImportDocument_StoresFileAndQuestions(t *testing.T) {
	svc, store, rec := newTestService(t)
	ctx := context.Background()
	doc := document(shortAnswer("Capital of France", "Paris", "Lutetia"))

	res, err := svc.ImportDocument(ctx, "geo/capitals.xml", doc, WriteMode{})
	require.NoError(t, err)
	assert.Equal(t, checksum.Sum(doc), res.Checksum)
	require.Len(t, res.Questions, 1)
	assert.NotEmpty(t, res.Questions[0].ID)
	assert.Equal(t, "geo/capitals.xml", res.Questions[0].Source)

	onDisk, err := store.Read("geo/capitals.xml")
	require.NoError(t, err)
	assert.Equal(t, doc, onDisk)

	q, err := svc.GetQuestion(ctx, res.Questions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Lutetia", q.Answers[1].Text)
	assert.Equal(t, []string{"imported:geo/capitals.xml"}, rec.events)
}

func TestImportDocument_RejectsNonXMLPath(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.ImportDocument(context.Background(), "notes.md", document(), WriteMode{})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestImportDocument_MalformedWritesNothing(t *testing.T) {
	svc, store, rec := newTestService(t)
	bad := []byte(glossary.WrapDocument("<ENTRY><CONCEPT>c</CONCEPT></ENTRY>"))

	_, err := svc.ImportDocument(context.Background(), "bad.xml", bad, WriteMode{})
	assert.ErrorIs(t, err, apperr.ErrMalformedDocument)

	_, err = store.Read("bad.xml")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, rec.events)
}

func TestImportDocument_ExistingAndIfMatch(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	first := document(shortAnswer("one", "a"))
	second := document(shortAnswer("two", "b"))

	_, err := svc.ImportDocument(ctx, "g.xml", first, WriteMode{})
	require.NoError(t, err)

	_, err = svc.ImportDocument(ctx, "g.xml", second, WriteMode{})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	_, err = svc.ImportDocument(ctx, "g.xml", second, WriteMode{Overwrite: true, IfMatch: "stale"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	res, err := svc.ImportDocument(ctx, "g.xml", second, WriteMode{Overwrite: true, IfMatch: `"` + checksum.Sum(first) + `"`})
	require.NoError(t, err)
	assert.Equal(t, "two", res.Questions[0].Body)

	_, err = svc.ImportDocument(ctx, "missing.xml", second, WriteMode{Overwrite: true, IfMatch: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteSource(t *testing.T) {
	svc, store, rec := newTestService(t)
	ctx := context.Background()
	_, err := svc.ImportDocument(ctx, "d.xml", document(shortAnswer("x", "y")), WriteMode{})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSource(ctx, "d.xml"))
	_, err = store.Read("d.xml")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	sources, err := svc.Sources(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)
	assert.Contains(t, rec.events, "removed:d.xml")

	assert.ErrorIs(t, svc.DeleteSource(ctx, "d.xml"), apperr.ErrNotFound)
}

func TestConvertImport(t *testing.T) {
	svc, _, _ := newTestService(t)
	qs, err := svc.ConvertImport(context.Background(), strings.NewReader(string(document(shortAnswer("d", "c")))))
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Empty(t, qs[0].ID, "converted questions are not stored")
}

func TestConvertExport(t *testing.T) {
	svc, _, _ := newTestService(t)
	essay := shortAnswer("Discuss", "x")
	essay.Kind = models.KindEssay

	res, err := svc.ConvertExport(context.Background(), []models.Question{shortAnswer("d", "c"), essay})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Exported)
	assert.Equal(t, 1, res.Skipped)
	assert.Contains(t, res.Document, "<CONCEPT>c</CONCEPT>")
	assert.Contains(t, res.Document, "<FULLMATCH>1</FULLMATCH>")
}

func TestConvertExport_Invalid(t *testing.T) {
	svc, _, _ := newTestService(t)
	bad := shortAnswer("", "c")
	_, err := svc.ConvertExport(context.Background(), []models.Question{bad})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestExportBank(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, _ = svc.ImportDocument(ctx, "a.xml", document(shortAnswer("first", "Alpha")), WriteMode{})
	_, _ = svc.ImportDocument(ctx, "b.xml", document(shortAnswer("second", "Beta")), WriteMode{})

	all, err := svc.ExportBank(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, all.Exported)
	assert.Less(t, strings.Index(all.Document, "Alpha"), strings.Index(all.Document, "Beta"))

	one, err := svc.ExportBank(ctx, "b.xml")
	require.NoError(t, err)
	assert.NotContains(t, one.Document, "Alpha")

	_, err = svc.ExportBank(ctx, "nope.xml")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestExportQuestion(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	res, err := svc.ImportDocument(ctx, "a.xml", document(shortAnswer("d", "c")), WriteMode{})
	require.NoError(t, err)

	out, err := svc.ExportQuestion(ctx, res.Questions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Exported)

	_, err = svc.ExportQuestion(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListAndSearch(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, _ = svc.ImportDocument(ctx, "a.xml", document(shortAnswer("needle in body", "c"), shortAnswer("hay", "d")), WriteMode{})

	items, total, err := svc.ListQuestions(ctx, bank.ListFilter{Source: "a.xml"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)

	hits, err := svc.Search(ctx, "needle", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	none, err := svc.Search(ctx, "absent", 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

// watchedService runs the workspace watcher next to the service and sends
// both notifiers to one recorder, as the server does.
func watchedService(t *testing.T) (*Service, *recorder) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)

	f, err := os.CreateTemp("", "glossaryqf-svc-watch-*.db")
	require.NoError(t, err)
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := bank.Open(f.Name())
	require.NoError(t, err)

	rec := &recorder{}
	im := glossary.NewImporter()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bank.Watch(ctx, db, store, im, store.Root(), logger, rec.notify)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		db.Close()
	})
	time.Sleep(100 * time.Millisecond)

	return NewService(store, db, glossary.NewExporter(nil), im, WithNotifier(rec.notify)), rec
}

func (r *recorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

func TestImportDocument_IDsSurviveWatcher(t *testing.T) {
	svc, rec := watchedService(t)
	ctx := context.Background()

	res, err := svc.ImportDocument(ctx, "geo.xml", document(shortAnswer("Capital of France", "Paris")), WriteMode{})
	require.NoError(t, err)
	require.Len(t, res.Questions, 1)
	id := res.Questions[0].ID

	// Give the watcher time to see the Create event.
	time.Sleep(500 * time.Millisecond)

	q, err := svc.GetQuestion(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Paris", q.Answers[0].Text)

	_, err = svc.ExportQuestion(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.count("imported:geo.xml"))
}

func TestImportDocument_OverwriteKeepsIDsUnderWatcher(t *testing.T) {
	svc, rec := watchedService(t)
	ctx := context.Background()

	first, err := svc.ImportDocument(ctx, "geo.xml", document(shortAnswer("Capital of France", "Paris")), WriteMode{})
	require.NoError(t, err)
	second, err := svc.ImportDocument(ctx, "geo.xml",
		document(shortAnswer("Capital of France", "Paris", "Lutetia")), WriteMode{Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, first.Questions[0].ID, second.Questions[0].ID)

	time.Sleep(500 * time.Millisecond)

	q, err := svc.GetQuestion(ctx, second.Questions[0].ID)
	require.NoError(t, err)
	assert.Len(t, q.Answers, 2)
	assert.Equal(t, 2, rec.count("imported:geo.xml"))
}

func TestDeleteSource_SingleNotificationUnderWatcher(t *testing.T) {
	svc, rec := watchedService(t)
	ctx := context.Background()

	_, err := svc.ImportDocument(ctx, "gone.xml", document(shortAnswer("d", "c")), WriteMode{})
	require.NoError(t, err)
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, svc.DeleteSource(ctx, "gone.xml"))
	time.Sleep(500 * time.Millisecond)

	assert.Equal(t, 1, rec.count("removed:gone.xml"))
}

type failingStore struct {
	storage.Provider
}

func (failingStore) Write(string, []byte) error { return errors.New("disk full") }

func TestImportDocument_FailedWriteRestoresBank(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	orig := document(shortAnswer("Capital of France", "Paris"))
	_, err := svc.ImportDocument(ctx, "geo.xml", orig, WriteMode{})
	require.NoError(t, err)
	_, err = svc.ImportDocument(ctx, "new.xml", document(shortAnswer("x", "y")), WriteMode{})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSource(ctx, "new.xml"))

	svc.store = failingStore{Provider: store}

	_, err = svc.ImportDocument(ctx, "geo.xml", document(shortAnswer("Other", "Rome")), WriteMode{Overwrite: true})
	require.Error(t, err)
	qs, _, err := svc.ListQuestions(ctx, bank.ListFilter{Source: "geo.xml"})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "Paris", qs[0].Answers[0].Text)

	_, err = svc.ImportDocument(ctx, "new.xml", document(shortAnswer("x", "y")), WriteMode{})
	require.Error(t, err)
	sources, err := svc.Sources(ctx)
	require.NoError(t, err)
	for _, src := range sources {
		assert.NotEqual(t, "new.xml", src.Path)
	}
}
