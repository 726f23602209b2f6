package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func renderChildren(t *testing.T, n *html.Node) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, RenderChildrenXML(&sb, n))
	return sb.String()
}

func TestParseHTML(t *testing.T) {
	src := `<!DOCTYPE html>
<html prefix="dc: http://purl.org/dc/terms/">
<head><base href="http://example.org/"><title>t</title></head>
<body><p property="dc:title" xml:lang="en">Hi</p>
<svg><a xlink:href="#x"></a></svg></body></html>`

	doc, err := Parse(strings.NewReader(src), "text/html; charset=utf-8")
	require.NoError(t, err)

	root := DocumentElement(doc)
	require.NotNil(t, root)
	assert.Equal(t, "html", root.Data)
	prefix, ok := Attr(root, "prefix")
	assert.True(t, ok)
	assert.Equal(t, "dc: http://purl.org/dc/terms/", prefix)

	bases := ElementsByName(root, "base")
	require.Len(t, bases, 1)
	href, _ := Attr(bases[0], "href")
	assert.Equal(t, "http://example.org/", href)

	ps := ElementsByName(root, "p")
	require.Len(t, ps, 1)
	lang, ok := Attr(ps[0], "xml:lang")
	assert.True(t, ok)
	assert.Equal(t, "en", lang)
	assert.Equal(t, "Hi", Text(ps[0]))

	links := ElementsByName(root, "a")
	require.Len(t, links, 1)
	link, ok := Attr(links[0], "xlink:href")
	assert.True(t, ok, "foreign attributes are addressed by their qualified name")
	assert.Equal(t, "#x", link)
}

func TestParseHTML_ImpliedElements(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<p about="#me">x</p>`), "text/html")
	require.NoError(t, err)
	root := DocumentElement(doc)
	assert.Equal(t, "html", root.Data)
	assert.Len(t, ElementsByName(root, "body"), 1)
}

func TestParseXML_KeepsPrefixes(t *testing.T) {
	src := `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xml:base="http://example.org/">
  <metadata>
    <rdf:RDF><rdf:Description rdf:about="#pic"/></rdf:RDF>
  </metadata>
</svg>`

	doc, err := Parse(strings.NewReader(src), "image/svg+xml")
	require.NoError(t, err)
	root := DocumentElement(doc)
	assert.Equal(t, "svg", root.Data)

	base, ok := Attr(root, "xml:base")
	assert.True(t, ok)
	assert.Equal(t, "http://example.org/", base)

	rdfs := ElementsByName(root, "RDF")
	require.Len(t, rdfs, 1)
	rdfNode := rdfs[0]
	assert.Equal(t, "rdf:RDF", rdfNode.Data)
	assert.Equal(t, "rdf", Prefix(rdfNode))
	assert.Equal(t, "RDF", LocalName(rdfNode))

	ns, ok := LookupNamespace(rdfNode, "rdf")
	assert.True(t, ok)
	assert.Equal(t, "http://www.w3.org/1999/02/22-rdf-syntax-ns#", ns)
	def, ok := LookupNamespace(rdfNode, "")
	assert.True(t, ok)
	assert.Equal(t, "http://www.w3.org/2000/svg", def)
	_, ok = LookupNamespace(rdfNode, "foaf")
	assert.False(t, ok)

	desc := Elements(rdfNode)
	require.Len(t, desc, 1)
	about, _ := Attr(desc[0], "rdf:about")
	assert.Equal(t, "#pic", about)
}

func TestParseXML_Entities(t *testing.T) {
	doc, err := ParseXML(strings.NewReader(`<p>a&nbsp;b &amp; <![CDATA[<c>]]></p>`))
	require.NoError(t, err)
	root := DocumentElement(doc)
	assert.Equal(t, "a\u00a0b & <c>", Text(root))
	// adjacent character data is merged into one text node
	assert.Equal(t, root.FirstChild, root.LastChild)
}

func TestParseXML_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"mismatched end", `<a><b></a>`},
		{"unclosed", `<a><b/>`},
		{"second root", `<a/><b/>`},
		{"text outside root", `x<a/>`},
		{"empty", ``},
		{"stray end", `</a>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseXML(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestRenderXML(t *testing.T) {
	doc, err := ParseXML(strings.NewReader(
		`<p xmlns:ex="http://example.org/">Some <b class="x" title="a&quot;b">bold &amp; "q"</b><br/> text<!-- note --></p>`))
	require.NoError(t, err)
	root := DocumentElement(doc)

	assert.Equal(t, `Some <b class="x" title="a&quot;b">bold &amp; "q"</b><br/> text<!-- note -->`, renderChildren(t, root))

	var sb strings.Builder
	require.NoError(t, RenderXML(&sb, root))
	assert.True(t, strings.HasPrefix(sb.String(), `<p xmlns:ex="http://example.org/">Some`))
	assert.True(t, strings.HasSuffix(sb.String(), `</p>`))
}

func TestRenderXML_FromHTML(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<div id="d">a<br>b<img src="i.png"></div>`), "text/html")
	require.NoError(t, err)
	divs := ElementsByName(DocumentElement(doc), "div")
	require.Len(t, divs, 1)
	assert.Equal(t, `a<br/>b<img src="i.png"/>`, renderChildren(t, divs[0]))
}

func TestAttributeHelpers(t *testing.T) {
	n := &html.Node{Type: html.ElementNode, Data: "span", Attr: []html.Attribute{
		{Key: "about", Val: "#a"},
		{Key: "property", Val: "ex:p"},
	}}

	assert.True(t, HasAttr(n, "rel", "about"))
	assert.False(t, HasAttr(n, "rel", "rev"))

	SetAttr(n, "about", "#b")
	SetAttr(n, "content", "")
	v, _ := Attr(n, "about")
	assert.Equal(t, "#b", v)
	v, ok := Attr(n, "content")
	assert.True(t, ok, "an empty attribute is still present")
	assert.Equal(t, "", v)
	assert.Len(t, n.Attr, 3)

	RemoveAttr(n, "property")
	assert.False(t, HasAttr(n, "property"))
	assert.Len(t, n.Attr, 2)
}

func TestIsHTML(t *testing.T) {
	assert.True(t, IsHTML("text/html"))
	assert.True(t, IsHTML("TEXT/HTML; charset=iso-8859-1"))
	assert.False(t, IsHTML("application/xhtml+xml"))
	assert.False(t, IsHTML("image/svg+xml"))
}
