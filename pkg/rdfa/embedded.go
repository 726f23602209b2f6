package rdfa

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aleksaelezovic/rdfa/internal/markup"
	"github.com/aleksaelezovic/rdfa/pkg/rdf"
	"golang.org/x/net/html"
)

// embedded handles islands of other RDF syntaxes: rdf:RDF elements in XML
// hosts and, when enabled, Turtle scripts in HTML and SVG. It reports
// whether the element was consumed; the walk then skips its subtree.
func (w *walker) embedded(c *ExecutionContext) bool {
	n := c.node
	if w.opts.EmbeddedTurtle && (w.host.isHTML() || w.host == SVG) && markup.LocalName(n) == "script" {
		if typ, _ := markup.Attr(n, "type"); strings.TrimSpace(typ) == "text/turtle" {
			w.embeddedTurtle(c)
			return true
		}
	}
	if w.host.acceptsEmbeddedRDF() && markup.LocalName(n) == "RDF" {
		if ns, _ := markup.LookupNamespace(n, markup.Prefix(n)); ns == rdf.RDFNamespace {
			w.embeddedRDFXML(c)
			return true
		}
	}
	return false
}

func (w *walker) embeddedRDFXML(c *ExecutionContext) {
	island := c.withScope(c.node)
	markup.RemoveAttr(island, "xml:base")
	island.Attr = append(island.Attr, html.Attribute{Key: "xml:base", Val: c.Base})

	var sb strings.Builder
	_ = markup.RenderXML(&sb, island)
	triples, err := rdf.NewRDFXMLParser().Parse(strings.NewReader(sb.String()), c.Base)
	if err != nil {
		c.errorf("embedded RDF/XML content could not be parsed, ignored: %v", err)
		return
	}
	w.addAll(w.bnodes.relabel(triples))
}

func (w *walker) embeddedTurtle(c *ExecutionContext) {
	var sb strings.Builder
	// the prefixes in scope are available to the script
	for _, prefix := range slices.Sorted(maps.Keys(c.Table.prefixes)) {
		fmt.Fprintf(&sb, "@prefix %s: <%s> .\n", prefix, c.Table.prefixes[prefix])
	}
	for t := c.node.FirstChild; t != nil; t = t.NextSibling {
		if t.Type == html.TextNode {
			sb.WriteString(t.Data)
		}
	}
	content := strings.NewReplacer("<![CDATA[", "", "]]>", "").Replace(sb.String())

	parser, err := rdf.NewParser("text/turtle")
	if err != nil {
		c.errorf("embedded Turtle content could not be parsed, ignored: %v", err)
		return
	}
	triples, err := parser.Parse(strings.NewReader(content), c.Base)
	if err != nil {
		c.errorf("embedded Turtle content could not be parsed, ignored: %v", err)
		return
	}
	w.addAll(w.bnodes.relabel(triples))
}
