// Package glossary converts between bank questions and glossary XML documents.
//
// Export walks a question's answers once: the first full-credit answer
// becomes the entry concept and every later full-credit answer an alias.
// Import reverses this, producing one shortanswer question per entry with
// the concept at answer index 0.
package glossary

import (
	"strings"

	"github.com/starford/glossaryqf/internal/models"
	"github.com/starford/glossaryqf/internal/xmltag"
)

// File metadata for glossary documents.
const (
	FileExtension = ".xml"
	MIMEType      = "application/xml"
)

// Element names.
const (
	elemGlossary      = "GLOSSARY"
	elemInfo          = "INFO"
	elemEntries       = "ENTRIES"
	elemEntry         = "ENTRY"
	elemConcept       = "CONCEPT"
	elemDefinition    = "DEFINITION"
	elemFormat        = "FORMAT"
	elemAliases       = "ALIASES"
	elemAlias         = "ALIAS"
	elemName          = "NAME"
	elemUseDynaLink   = "USEDYNALINK"
	elemCaseSensitive = "CASESENSITIVE"
	elemFullMatch     = "FULLMATCH"
)

// Exporter writes questions as glossary entries.
type Exporter struct {
	settings Settings
}

// NewExporter returns an Exporter reading entry flags from settings.
// A nil settings writes empty flags.
func NewExporter(settings Settings) *Exporter {
	if settings == nil {
		settings = StaticSettings{}
	}
	return &Exporter{settings: settings}
}

// WriteQuestion returns the ENTRY fragment for q, or "" when q's kind has no
// glossary representation. A question without a full-credit answer yields an
// entry without CONCEPT.
func (e *Exporter) WriteQuestion(q models.Question) string {
	if !q.Kind.Glossary() {
		return ""
	}

	var b strings.Builder
	b.WriteString(xmltag.StartTag(elemEntry, 3, true))

	// One forward cursor shared by the concept and alias scans.
	i := 0
	for i < len(q.Answers) {
		a := q.Answers[i]
		i++
		if a.IsFullMatch() {
			b.WriteString(xmltag.FullTag(elemConcept, 4, false, trimTerm(a.Text)))
			break
		}
	}

	b.WriteString(xmltag.FullTag(elemDefinition, 4, false, q.Body))
	b.WriteString(xmltag.FullTag(elemFormat, 4, false, q.BodyFormat.Code()))

	b.WriteString(xmltag.StartTag(elemAliases, 4, true))
	for ; i < len(q.Answers); i++ {
		a := q.Answers[i]
		if !a.IsFullMatch() {
			continue
		}
		b.WriteString(xmltag.StartTag(elemAlias, 5, true))
		b.WriteString(xmltag.FullTag(elemName, 6, false, trimTerm(a.Text)))
		b.WriteString(xmltag.EndTag(elemAlias, 5, true))
	}
	b.WriteString(xmltag.EndTag(elemAliases, 4, true))

	b.WriteString(xmltag.FullTag(elemUseDynaLink, 4, false, e.settings.Get(SettingsScope, SettingLinkEntries)))
	b.WriteString(xmltag.FullTag(elemCaseSensitive, 4, false, e.settings.Get(SettingsScope, SettingCaseSensitive)))
	b.WriteString(xmltag.FullTag(elemFullMatch, 4, false, e.settings.Get(SettingsScope, SettingFullMatch)))

	b.WriteString(xmltag.EndTag(elemEntry, 3, true))
	return b.String()
}

// WriteDocument exports every question in order and wraps the entries in the
// document envelope. Questions without a glossary form are skipped.
func (e *Exporter) WriteDocument(questions []models.Question) string {
	var b strings.Builder
	for _, q := range questions {
		b.WriteString(e.WriteQuestion(q))
	}
	return WrapDocument(b.String())
}

// trimTerm trims the ASCII whitespace and NUL bytes that term values are
// stored with; other Unicode spaces are part of the term.
func trimTerm(s string) string {
	return strings.Trim(s, " \t\n\r\x00\x0b")
}
