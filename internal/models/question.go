// Package models defines the question-bank types shared by the converter,
// the bank store and the API.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Kind is the question type tag.
type Kind string

// Question kinds known to the bank. Only shortanswer and multichoice are
// exported as glossary entries.
const (
	KindShortAnswer Kind = "shortanswer"
	KindMultiChoice Kind = "multichoice"
	KindTrueFalse   Kind = "truefalse"
	KindNumerical   Kind = "numerical"
	KindEssay       Kind = "essay"
	KindDescription Kind = "description"
	KindCategory    Kind = "category"
)

var knownKinds = []interface{}{
	KindShortAnswer, KindMultiChoice, KindTrueFalse, KindNumerical,
	KindEssay, KindDescription, KindCategory,
}

// Glossary reports whether questions of this kind map to glossary entries.
func (k Kind) Glossary() bool {
	return k == KindShortAnswer || k == KindMultiChoice
}

// TextFormat is the numeric text-format code carried in FORMAT elements.
type TextFormat int

// Text format codes.
const (
	FormatMoodle   TextFormat = 0
	FormatHTML     TextFormat = 1
	FormatPlain    TextFormat = 2
	FormatWiki     TextFormat = 3
	FormatMarkdown TextFormat = 4
)

var formatNames = map[TextFormat]string{
	FormatMoodle:   "moodle",
	FormatHTML:     "html",
	FormatPlain:    "plain",
	FormatWiki:     "wiki",
	FormatMarkdown: "markdown",
}

// String returns the format name, or the bare code for unknown values.
func (f TextFormat) String() string {
	if n, ok := formatNames[f]; ok {
		return n
	}
	return strconv.Itoa(int(f))
}

// Code returns the decimal code written into glossary documents.
func (f TextFormat) Code() string {
	return strconv.Itoa(int(f))
}

// ParseTextFormat accepts either a decimal code ("1") or a format name ("html").
func ParseTextFormat(s string) (TextFormat, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		f := TextFormat(n)
		if _, ok := formatNames[f]; !ok {
			return 0, fmt.Errorf("unknown text format code %d", n)
		}
		return f, nil
	}
	for f, name := range formatNames {
		if strings.EqualFold(name, s) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown text format %q", s)
}

// FormattedText is a text value together with its format.
type FormattedText struct {
	Text   string     `json:"text" yaml:"text"`
	Format TextFormat `json:"format" yaml:"format"`
}

// Answer is one acceptable response.
type Answer struct {
	Text     string        `json:"text" yaml:"text"`
	Fraction float64       `json:"fraction" yaml:"fraction"`
	Feedback FormattedText `json:"feedback" yaml:"feedback"`
}

// IsFullMatch reports whether the answer earns full credit. Only an exact
// 1.0 counts; no other weight is meaningful to the glossary mapping.
func (a Answer) IsFullMatch() bool {
	return a.Fraction == 1.0
}

// Validate checks the answer fields.
func (a Answer) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Fraction, validation.Min(0.0), validation.Max(1.0)),
	)
}

// Question is a question-bank question. Answer order is significant.
type Question struct {
	ID              string        `json:"id,omitempty" yaml:"id,omitempty"`
	Kind            Kind          `json:"kind" yaml:"kind"`
	Name            string        `json:"name" yaml:"name"`
	Body            string        `json:"body" yaml:"body"`
	BodyFormat      TextFormat    `json:"body_format" yaml:"body_format"`
	Answers         []Answer      `json:"answers" yaml:"answers"`
	GeneralFeedback FormattedText `json:"general_feedback" yaml:"general_feedback"`
	DefaultMark     float64       `json:"default_mark" yaml:"default_mark"`
	Penalty         float64       `json:"penalty" yaml:"penalty"`
	UseCase         bool          `json:"usecase" yaml:"usecase"`
	Source          string        `json:"source,omitempty" yaml:"source,omitempty"`
	CreatedAt       time.Time     `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt       time.Time     `json:"updated_at,omitempty" yaml:"-"`
}

// DefaultQuestion returns a question populated with the bank defaults.
func DefaultQuestion() Question {
	return Question{
		Kind:            KindShortAnswer,
		BodyFormat:      FormatMoodle,
		GeneralFeedback: FormattedText{Format: FormatMoodle},
		DefaultMark:     1,
		Penalty:         0.3333333,
	}
}

// Validate checks a question supplied by a client or a question file.
func (q Question) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Kind, validation.Required, validation.In(knownKinds...)),
		validation.Field(&q.Body, validation.When(q.Kind.Glossary(), validation.Required)),
		validation.Field(&q.Answers, validation.When(q.Kind.Glossary(), validation.Required)),
		validation.Field(&q.DefaultMark, validation.Min(0.0)),
		validation.Field(&q.Penalty, validation.Min(0.0), validation.Max(1.0)),
	)
}
