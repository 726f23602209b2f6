package rdfa

import (
	"strings"
	"testing"

	"github.com/aleksaelezovic/rdfa/internal/markup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostLanguageForMediaType(t *testing.T) {
	tests := map[string]HostLanguage{
		"text/html":                HTML5,
		"text/html; charset=utf-8": HTML5,
		"application/xhtml+xml":    XHTML,
		"image/svg+xml":            SVG,
		"application/atom+xml":     Atom,
		"application/rss+xml":      RDFaCore,
		"text/turtle":              HostAuto,
	}
	for mediaType, expected := range tests {
		assert.Equal(t, expected, HostLanguageForMediaType(mediaType), mediaType)
	}
}

func TestHostLanguageForSuffix(t *testing.T) {
	assert.Equal(t, HTML5, HostLanguageForSuffix("index.HTML"))
	assert.Equal(t, SVG, HostLanguageForSuffix("http://example.org/pic.svg?size=2#top"))
	assert.Equal(t, HostAuto, HostLanguageForSuffix("notes.txt"))
}

func TestDetectHostLanguage(t *testing.T) {
	tests := []struct {
		doc      string
		expected HostLanguage
	}{
		{`<html xmlns="http://www.w3.org/1999/xhtml"/>`, XHTML},
		{`<html/>`, HTML5},
		{`<svg xmlns="http://www.w3.org/2000/svg"/>`, SVG},
		{`<feed xmlns="http://www.w3.org/2005/Atom"/>`, Atom},
		{`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"/>`, RDFaCore},
	}
	for _, tt := range tests {
		root, err := markup.ParseXML(strings.NewReader(tt.doc))
		require.NoError(t, err)
		assert.Equal(t, tt.expected, detectHostLanguage(markup.DocumentElement(root)), tt.doc)
	}
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("1.0")
	require.NoError(t, err)
	assert.Equal(t, Version10, v)

	v, err = ParseVersion("")
	require.NoError(t, err)
	assert.Equal(t, VersionAuto, v)

	_, err = ParseVersion("2.0")
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestDetectVersion(t *testing.T) {
	assert.Equal(t, Version10, detectVersion("XHTML+RDFa 1.0"))
	assert.Equal(t, Version11, detectVersion("XHTML+RDFa 1.1"))
	assert.Equal(t, Version11, detectVersion(""))
}

func TestParseHostLanguage(t *testing.T) {
	h, err := ParseHostLanguage("HTML5")
	require.NoError(t, err)
	assert.Equal(t, HTML5, h)

	h, err = ParseHostLanguage("")
	require.NoError(t, err)
	assert.Equal(t, HostAuto, h)

	_, err = ParseHostLanguage("docbook")
	assert.ErrorIs(t, err, ErrUnknownHostLanguage)
}
