package rdfa

import (
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/aleksaelezovic/rdfa/internal/markup"
	"github.com/aleksaelezovic/rdfa/pkg/rdf"
	"golang.org/x/net/html"
)

var whitespaceRun = regexp.MustCompile(`[\r\n\t ]+`)

// literal builds the object of the element's @property. xmlLiteral is true
// when the value is the element's markup; its content is then not
// processed any further.
func (c *ExecutionContext) literal() (lit *rdf.Literal, xmlLiteral bool) {
	var datatype *rdf.NamedNode
	dt, datatypeSet := markup.Attr(c.node, "datatype")
	if datatypeSet && strings.TrimSpace(dt) != "" {
		if nn, ok := c.resource("datatype").(*rdf.NamedNode); ok {
			datatype = nn
		}
	}

	if content, ok := markup.Attr(c.node, "content"); ok {
		if datatype != nil {
			return rdf.NewLiteralWithDatatype(content, datatype), false
		}
		return c.plainLiteral(content), false
	}

	switch {
	case datatype != nil && datatype.IRI == rdf.RDFXMLLiteral.IRI:
		return rdf.NewLiteralWithDatatype(c.xmlLiteral(), rdf.RDFXMLLiteral), true
	case datatype != nil:
		return rdf.NewLiteralWithDatatype(c.text(), datatype), false
	case !datatypeSet && c.Version.implicitXMLLiterals() && hasElementChild(c.node):
		return rdf.NewLiteralWithDatatype(c.xmlLiteral(), rdf.RDFXMLLiteral), true
	}
	return c.plainLiteral(c.text()), false
}

func (c *ExecutionContext) plainLiteral(value string) *rdf.Literal {
	if c.Lang != "" {
		return rdf.NewLiteralWithLanguage(value, c.Lang)
	}
	return rdf.NewLiteral(value)
}

// text is the text content of the element, white space normalised unless
// the processor preserves it
func (c *ExecutionContext) text() string {
	s := markup.Text(c.node)
	if c.w.opts.SpacePreserve {
		return s
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// xmlLiteral serializes the content of the element. Every top level child
// element carries the namespace declarations and language in scope so that
// the literal stands on its own.
func (c *ExecutionContext) xmlLiteral() string {
	var sb strings.Builder
	for n := c.node.FirstChild; n != nil; n = n.NextSibling {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(markup.EscapeText(n.Data))
		case html.ElementNode:
			// errors only come from the writer, and strings.Builder never fails
			_ = markup.RenderXML(&sb, c.withScope(n))
		}
	}
	return sb.String()
}

// withScope returns a shallow copy of n with the in scope xmlns, default
// namespace and xml:lang added where n does not set them itself
func (c *ExecutionContext) withScope(n *html.Node) *html.Node {
	cp := *n
	cp.Attr = slices.Clone(n.Attr)
	for _, prefix := range slices.Sorted(maps.Keys(c.xmlns)) {
		name := "xmlns:" + prefix
		if !markup.HasAttr(n, name) {
			cp.Attr = append(cp.Attr, html.Attribute{Key: name, Val: c.xmlns[prefix]})
		}
	}
	if !markup.HasAttr(n, "xmlns") && c.defaultNS != "" {
		cp.Attr = append(cp.Attr, html.Attribute{Key: "xmlns", Val: c.defaultNS})
	}
	if !markup.HasAttr(n, "xml:lang") && c.Lang != "" {
		cp.Attr = append(cp.Attr, html.Attribute{Key: "xml:lang", Val: c.Lang})
	}
	return &cp
}

func hasElementChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
	}
	return false
}
