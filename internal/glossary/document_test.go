package glossary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/glossaryqf/internal/models"
	"github.com/starford/glossaryqf/internal/xmltree"
)

func decode(t *testing.T, doc string) *Document {
	t.Helper()
	root, err := xmltree.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	d, err := DecodeDocument(root)
	require.NoError(t, err)
	return d
}

func TestDecodeDocument_Flags(t *testing.T) {
	doc := NewExporter(testSettings).WriteDocument([]models.Question{shortAnswer("d", answer("c", 1))})

	d := decode(t, doc)
	require.Len(t, d.Entries, 1)
	assert.Equal(t, "0", d.Entries[0].UseDynaLink)
	assert.Equal(t, "0", d.Entries[0].CaseSensitive)
	assert.Equal(t, "1", d.Entries[0].FullMatch)
}

func TestDecodeDocument_FlagsOptional(t *testing.T) {
	d := decode(t, WrapDocument(entryXML("c", "d", "1")))
	require.Len(t, d.Entries, 1)
	assert.Equal(t, Entry{Concept: "c", Definition: "d", Format: "1"}, d.Entries[0])
}

func TestRoundTrip_WhitespaceDefinition(t *testing.T) {
	q := shortAnswer("  ", answer("blank", 1))

	got, err := NewImporter().ReadQuestions([]string{NewExporter(testSettings).WriteDocument([]models.Question{q})})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "  ", got[0].Body)
	assert.Equal(t, "  ", got[0].Name)
}
