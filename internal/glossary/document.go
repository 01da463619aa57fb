package glossary

import (
	"fmt"

	"github.com/starford/glossaryqf/internal/apperr"
	"github.com/starford/glossaryqf/internal/xmltree"
)

// Entry is one ENTRY element as written in the document, before trimming or
// sanitising. The flag fields are empty when the element is absent; the
// importer does not use them.
type Entry struct {
	Concept    string
	Definition string
	Format     string
	Aliases    []string

	UseDynaLink   string
	CaseSensitive string
	FullMatch     string
}

// Document is the ordered list of entries of a glossary document.
type Document struct {
	Entries []Entry
}

// DecodeDocument reads entries from a parsed GLOSSARY tree. Every required
// node that is absent yields an error wrapping apperr.ErrMalformedDocument;
// only the ALIASES container may be omitted.
func DecodeDocument(root *xmltree.Node) (*Document, error) {
	if root == nil || root.Name != elemGlossary {
		return nil, fmt.Errorf("%w: root element is not %s", apperr.ErrMalformedDocument, elemGlossary)
	}
	container, err := root.Path(elemInfo, elemEntries)
	if err != nil {
		return nil, malformed(err)
	}
	nodes := container.ChildrenNamed(elemEntry)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s/%s/%s/%s has no elements",
			apperr.ErrMalformedDocument, elemGlossary, elemInfo, elemEntries, elemEntry)
	}

	doc := &Document{Entries: make([]Entry, 0, len(nodes))}
	for i, n := range nodes {
		e, err := decodeEntry(n)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		doc.Entries = append(doc.Entries, e)
	}
	return doc, nil
}

func decodeEntry(n *xmltree.Node) (Entry, error) {
	var (
		e   Entry
		err error
	)
	if e.Concept, err = n.ChildText(elemConcept); err != nil {
		return Entry{}, malformed(err)
	}
	if e.Definition, err = n.ChildText(elemDefinition); err != nil {
		return Entry{}, malformed(err)
	}
	if e.Format, err = n.ChildText(elemFormat); err != nil {
		return Entry{}, malformed(err)
	}
	e.UseDynaLink = optionalText(n, elemUseDynaLink)
	e.CaseSensitive = optionalText(n, elemCaseSensitive)
	e.FullMatch = optionalText(n, elemFullMatch)

	aliases, err := n.Child(elemAliases)
	if err != nil {
		// No alias container means no aliases.
		return e, nil
	}
	for _, a := range aliases.ChildrenNamed(elemAlias) {
		name, err := a.ChildText(elemName)
		if err != nil {
			return Entry{}, malformed(err)
		}
		e.Aliases = append(e.Aliases, name)
	}
	return e, nil
}

func optionalText(n *xmltree.Node, name string) string {
	s, _ := n.ChildText(name)
	return s
}

func malformed(err error) error {
	return fmt.Errorf("%w: %w", apperr.ErrMalformedDocument, err)
}
