// Package bankservice coordinates the workspace, the question bank and the
// glossary converter for the HTTP and MCP front ends.
package bankservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/glossaryqf/internal/apperr"
	"github.com/starford/glossaryqf/internal/bank"
	"github.com/starford/glossaryqf/internal/checksum"
	"github.com/starford/glossaryqf/internal/glossary"
	"github.com/starford/glossaryqf/internal/models"
	"github.com/starford/glossaryqf/internal/storage"
)

// Notifier is told when a source enters ("imported") or leaves ("removed")
// the bank.
type Notifier func(kind, path string)

// ImportResult describes a stored glossary document.
type ImportResult struct {
	Path      string            `json:"path"`
	Checksum  string            `json:"checksum"`
	Questions []models.Question `json:"questions"`
}

// ExportResult is a generated glossary document.
type ExportResult struct {
	Document string `json:"document"`
	Exported int    `json:"exported"`
	Skipped  int    `json:"skipped"`
}

// WriteMode controls how ImportDocument treats an existing document.
type WriteMode struct {
	// Overwrite allows replacing an existing document.
	Overwrite bool
	// IfMatch, when set, must equal the checksum of the existing document.
	IfMatch string
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier registers a callback for bank changes made through the service.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notify = n
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// Service coordinates storage, bank and converter operations.
type Service struct {
	store    storage.Provider
	db       bank.QuestionBank
	exporter *glossary.Exporter
	importer *glossary.Importer
	notify   Notifier
	logger   *slog.Logger
}

// NewService creates a new bank service.
func NewService(store storage.Provider, db bank.QuestionBank, exp *glossary.Exporter, im *glossary.Importer, opts ...Option) *Service {
	s := &Service{
		store:    store,
		db:       db,
		exporter: exp,
		importer: im,
		notify:   func(string, string) {},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportDocument validates content as a glossary document, stores it in the
// workspace at path and replaces the questions the bank holds for path.
// Nothing is written when the document is malformed.
func (s *Service) ImportDocument(_ context.Context, path string, content []byte, mode WriteMode) (*ImportResult, error) {
	if !storage.IsDocument(path) {
		return nil, fmt.Errorf("%w: %q is not a %s document", apperr.ErrInvalidInput, path, glossary.FileExtension)
	}

	existing, err := s.store.Read(path)
	hadFile := err == nil
	switch {
	case err == nil:
		if !mode.Overwrite {
			return nil, apperr.ErrAlreadyExists
		}
		if mode.IfMatch != "" && !checksum.Equal(mode.IfMatch, checksum.Sum(existing)) {
			return nil, apperr.ErrConflict
		}
	case errors.Is(err, apperr.ErrNotFound):
		if mode.IfMatch != "" {
			return nil, apperr.ErrNotFound
		}
	default:
		return nil, err
	}

	questions, err := s.importer.ReadFrom(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	// The bank is updated before the file lands so a workspace watcher sees
	// a matching checksum and leaves the rows alone.
	sum := checksum.Sum(content)
	stored, err := s.db.ReplaceSource(path, sum, questions)
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(path, content); err != nil {
		s.restore(path, existing, hadFile)
		return nil, err
	}

	s.logger.Info("glossary imported", slog.String("path", path), slog.Int("questions", len(stored)))
	s.notify("imported", path)
	return &ImportResult{Path: path, Checksum: sum, Questions: stored}, nil
}

// restore puts the bank rows for path back to the document that was on
// disk before a failed write.
func (s *Service) restore(path string, previous []byte, hadFile bool) {
	var err error
	if hadFile {
		_, err = bank.ImportFile(s.db, s.importer, path, previous)
	} else {
		err = s.db.DeleteSource(path)
	}
	if err != nil {
		s.logger.Warn("restore after failed write", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// DeleteSource removes a glossary document from the workspace and its
// questions from the bank.
func (s *Service) DeleteSource(_ context.Context, path string) error {
	previous, readErr := s.store.Read(path)
	bankErr := s.db.DeleteSource(path)
	if bankErr != nil && !errors.Is(bankErr, apperr.ErrNotFound) {
		return bankErr
	}
	fileErr := s.store.Delete(path)
	if fileErr != nil && !errors.Is(fileErr, apperr.ErrNotFound) {
		if readErr == nil && bankErr == nil {
			s.restore(path, previous, true)
		}
		return fileErr
	}
	if fileErr != nil && bankErr != nil {
		return apperr.ErrNotFound
	}
	s.notify("removed", path)
	return nil
}

// ConvertImport turns a glossary document into questions without storing
// anything.
func (s *Service) ConvertImport(_ context.Context, r io.Reader) ([]models.Question, error) {
	return s.importer.ReadFrom(r)
}

// ConvertExport validates questions and renders them as a glossary document.
// Questions of kinds without a glossary mapping are counted as skipped.
func (s *Service) ConvertExport(_ context.Context, questions []models.Question) (*ExportResult, error) {
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("%w: question %d: %w", apperr.ErrInvalidInput, i+1, err)
		}
	}
	return s.export(questions), nil
}

// ExportBank renders the stored questions of source, or of the whole bank
// when source is empty, as a glossary document.
func (s *Service) ExportBank(_ context.Context, source string) (*ExportResult, error) {
	if source != "" {
		known, err := s.db.SourceChecksums()
		if err != nil {
			return nil, err
		}
		if _, ok := known[source]; !ok {
			return nil, apperr.ErrNotFound
		}
	}
	questions, err := s.db.AllQuestions(source)
	if err != nil {
		return nil, err
	}
	return s.export(questions), nil
}

// ExportQuestion renders a single stored question as a glossary document.
func (s *Service) ExportQuestion(_ context.Context, id string) (*ExportResult, error) {
	q, err := s.db.GetQuestion(id)
	if err != nil {
		return nil, err
	}
	if !q.Kind.Glossary() {
		return nil, fmt.Errorf("%w: %s", apperr.ErrUnsupportedKind, q.Kind)
	}
	return s.export([]models.Question{*q}), nil
}

func (s *Service) export(questions []models.Question) *ExportResult {
	res := &ExportResult{}
	for _, q := range questions {
		if q.Kind.Glossary() {
			res.Exported++
		} else {
			res.Skipped++
		}
	}
	res.Document = s.exporter.WriteDocument(questions)
	return res
}

// GetQuestion returns a stored question.
func (s *Service) GetQuestion(_ context.Context, id string) (*models.Question, error) {
	return s.db.GetQuestion(id)
}

// ListQuestions returns a page of stored questions and the total count.
func (s *Service) ListQuestions(_ context.Context, f bank.ListFilter) ([]models.Question, int, error) {
	items, total, err := s.db.ListQuestions(f)
	if err != nil {
		return nil, 0, err
	}
	return nonNilSlice(items), total, nil
}

// Sources lists the imported glossary documents.
func (s *Service) Sources(_ context.Context) ([]models.Source, error) {
	src, err := s.db.Sources()
	return nonNilSlice(src), err
}

// Search delegates full-text search to the bank.
func (s *Service) Search(_ context.Context, query string, limit int) ([]bank.SearchResult, error) {
	res, err := s.db.Search(query, limit)
	return nonNilSlice(res), err
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
