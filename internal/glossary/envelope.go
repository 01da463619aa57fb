package glossary

import (
	"strings"

	"github.com/starford/glossaryqf/internal/xmltag"
)

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// WrapDocument surrounds already-serialised entries with the XML declaration
// and the GLOSSARY, INFO and ENTRIES elements. The entries are not inspected.
func WrapDocument(entries string) string {
	var b strings.Builder
	b.Grow(len(entries) + 128)
	b.WriteString(xmlDeclaration)
	b.WriteString(xmltag.StartTag(elemGlossary, 0, true))
	b.WriteString(xmltag.StartTag(elemInfo, 1, true))
	b.WriteString(xmltag.StartTag(elemEntries, 2, true))
	b.WriteString(entries)
	b.WriteString(xmltag.EndTag(elemEntries, 2, true))
	b.WriteString(xmltag.EndTag(elemInfo, 1, true))
	b.WriteString(xmltag.EndTag(elemGlossary, 0, true))
	return b.String()
}
