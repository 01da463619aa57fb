package glossary

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/starford/glossaryqf/internal/apperr"
	"github.com/starford/glossaryqf/internal/models"
	"github.com/starford/glossaryqf/internal/sanitize"
	"github.com/starford/glossaryqf/internal/xmltree"
)

// ImportOption configures an Importer.
type ImportOption func(*Importer)

// Importer turns glossary documents into shortanswer questions.
type Importer struct {
	strip    func(string) string
	defaults func() models.Question
	policy   *sanitize.Policy
	logger   *slog.Logger
}

// WithSanitizer replaces the function applied to DEFINITION and FORMAT text.
func WithSanitizer(fn func(string) string) ImportOption {
	return func(im *Importer) {
		im.strip = fn
	}
}

// WithDefaults sets the factory for the question every entry starts from.
func WithDefaults(fn func() models.Question) ImportOption {
	return func(im *Importer) {
		im.defaults = fn
	}
}

// WithDefinitionPolicy cleans or converts HTML definitions after sanitising.
func WithDefinitionPolicy(p sanitize.Policy) ImportOption {
	return func(im *Importer) {
		im.policy = &p
	}
}

// WithLogger sets the logger used for soft failures.
func WithLogger(l *slog.Logger) ImportOption {
	return func(im *Importer) {
		im.logger = l
	}
}

// NewImporter returns an Importer stripping trust markers and starting from
// models.DefaultQuestion.
func NewImporter(opts ...ImportOption) *Importer {
	im := &Importer{
		strip:    sanitize.StripUntrusted,
		defaults: models.DefaultQuestion,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ReadQuestions parses the concatenation of chunks as one glossary document.
// Chunk boundaries carry no meaning.
func (im *Importer) ReadQuestions(chunks []string) ([]models.Question, error) {
	readers := make([]io.Reader, len(chunks))
	for i, c := range chunks {
		readers[i] = strings.NewReader(c)
	}
	return im.ReadFrom(io.MultiReader(readers...))
}

// ReadFrom parses r as a glossary document and returns one question per
// entry, in document order.
//
// Input that is not XML, or whose root is not GLOSSARY, yields an empty
// result and no error. A GLOSSARY document missing a required node returns an
// error wrapping apperr.ErrMalformedDocument.
func (im *Importer) ReadFrom(r io.Reader) ([]models.Question, error) {
	root, err := xmltree.Parse(r)
	if err != nil {
		im.logger.Debug("glossary: input is not a document", slog.String("error", err.Error()))
		return []models.Question{}, nil
	}
	if root.Name != elemGlossary {
		im.logger.Debug("glossary: unexpected root element", slog.String("root", root.Name))
		return []models.Question{}, nil
	}

	doc, err := DecodeDocument(root)
	if err != nil {
		return nil, fmt.Errorf("glossary: %w", err)
	}

	questions := make([]models.Question, 0, len(doc.Entries))
	for i, e := range doc.Entries {
		q, err := im.question(e)
		if err != nil {
			return nil, fmt.Errorf("glossary: entry %d: %w", i+1, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (im *Importer) question(e Entry) (models.Question, error) {
	concept := trimTerm(e.Concept)
	definition := im.strip(e.Definition)

	format := models.FormatMoodle
	if raw := strings.TrimSpace(im.strip(e.Format)); raw != "" {
		f, err := models.ParseTextFormat(raw)
		if err != nil {
			return models.Question{}, fmt.Errorf("%w: %s: %w", apperr.ErrMalformedDocument, elemFormat, err)
		}
		format = f
	}

	if im.policy != nil {
		var err error
		definition, format, err = im.policy.Definition(definition, format)
		if err != nil {
			return models.Question{}, err
		}
	}

	q := im.defaults()
	q.Kind = models.KindShortAnswer
	q.BodyFormat = format
	q.Body = definition
	q.Name = definition

	q.Answers = make([]models.Answer, 0, 1+len(e.Aliases))
	q.Answers = append(q.Answers, fullCredit(concept))
	for _, alias := range e.Aliases {
		q.Answers = append(q.Answers, fullCredit(alias))
	}
	return q, nil
}

func fullCredit(text string) models.Answer {
	return models.Answer{
		Text:     text,
		Fraction: 1,
		Feedback: models.FormattedText{Format: models.FormatPlain},
	}
}
