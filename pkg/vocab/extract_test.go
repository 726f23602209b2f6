package vocab

import (
	"testing"

	"github.com/aleksaelezovic/rdfa/pkg/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractTurtle(t *testing.T, doc string) (*Vocabulary, []Note) {
	t.Helper()
	triples, err := rdf.NewTurtleParser("@prefix rdfa: <http://www.w3.org/ns/rdfa#> .\n" + doc).Parse()
	require.NoError(t, err)
	return Extract(triples, "http://example.org/vocab")
}

func TestExtract_Valid(t *testing.T) {
	v, notes := extractTurtle(t, `
[] rdfa:term "Name" ; rdfa:uri <http://xmlns.com/foaf/0.1/name> .
[] rdfa:prefix "DC" ; rdfa:uri "http://purl.org/dc/terms/" .
<http://example.org/vocab> rdfa:vocabulary "http://schema.org/" .
`)
	assert.Empty(t, notes)
	// terms keep their case, prefixes are lower-cased
	assert.Equal(t, map[string]string{"Name": "http://xmlns.com/foaf/0.1/name"}, v.Terms)
	assert.Equal(t, map[string]string{"dc": "http://purl.org/dc/terms/"}, v.Prefixes)
	assert.Equal(t, "http://schema.org/", v.Vocabulary)
}

func TestExtract_RejectsMalformedDefinitions(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"non literal", `[] rdfa:term <http://example.org/t> ; rdfa:uri "http://example.org/x" .`},
		{"not an NCName", `[] rdfa:term "1abc" ; rdfa:uri "http://example.org/x" .`},
		{"defined twice", `
[] rdfa:term "t" ; rdfa:uri "http://example.org/x" .
[] rdfa:term "t" ; rdfa:uri "http://example.org/y" .`},
		{"node defines two terms", `[] rdfa:term "t", "u" ; rdfa:uri "http://example.org/x" .`},
		{"node defines term and prefix", `[] rdfa:term "t" ; rdfa:prefix "p" ; rdfa:uri "http://example.org/x" .`},
		{"no uri", `[] rdfa:term "t" .`},
		{"two uris", `[] rdfa:term "t" ; rdfa:uri "http://example.org/x", "http://example.org/y" .`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, notes := extractTurtle(t, tt.doc)
			assert.Empty(t, v.Terms)
			assert.Empty(t, v.Prefixes)
			require.NotEmpty(t, notes)
			for _, n := range notes {
				assert.Equal(t, LevelWarning, n.Level)
				assert.Equal(t, "http://example.org/vocab", n.Source)
			}
		})
	}
}

func TestExtract_MultipleVocabularies(t *testing.T) {
	v, notes := extractTurtle(t, `
[] rdfa:vocabulary <http://schema.org/> .
[] rdfa:vocabulary <http://xmlns.com/foaf/0.1/> .
`)
	assert.Empty(t, v.Vocabulary)
	require.Len(t, notes, 1)
	assert.Equal(t, LevelWarning, notes[0].Level)
}

func TestExtract_QuotesPrefixURIs(t *testing.T) {
	v, notes := extractTurtle(t, `[] rdfa:prefix "ex" ; rdfa:uri " http://example.org/a b/ " .`)
	assert.Equal(t, "http://example.org/a%20b/", v.Prefixes["ex"])
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "unusual character")
}

func TestIsNCName(t *testing.T) {
	assert.True(t, IsNCName("foaf"))
	assert.True(t, IsNCName("dbp-owl"))
	assert.True(t, IsNCName("a.b_c"))
	assert.False(t, IsNCName("_"))
	assert.False(t, IsNCName("1st"))
	assert.False(t, IsNCName("a:b"))
	assert.False(t, IsNCName(""))
}
