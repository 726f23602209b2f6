// Package markup turns HTML and XML source documents into a single tree
// representation, the *html.Node tree of golang.org/x/net/html.
//
// HTML is parsed by the HTML5 parser. XML dialects (XHTML, SVG, Atom, generic
// XML) are read token by token and built into the same node type; element and
// attribute names keep their prefixes ("svg:rect", "xmlns:foaf", "xml:lang")
// since the RDFa processing model works on prefixed names.
package markup

import (
	"fmt"
	"io"
	"mime"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Parse reads a document of the given media type. text/html goes through the
// HTML5 parser, everything else is treated as XML.
func Parse(r io.Reader, mediaType string) (*html.Node, error) {
	if IsHTML(mediaType) {
		return ParseHTML(r, mediaType)
	}
	return ParseXML(r)
}

// IsHTML reports whether mediaType names the (non-XML) HTML syntax
func IsHTML(mediaType string) bool {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(mediaType))
	}
	return mt == "text/html"
}

// ParseHTML parses an HTML document. contentType may carry a charset
// parameter; without one the encoding is sniffed from the content.
func ParseHTML(r io.Reader, contentType string) (*html.Node, error) {
	utf8, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to detect document encoding: %w", err)
	}
	doc, err := html.Parse(utf8)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// DocumentElement returns the top level element of a document node, or n
// itself when it is already an element.
func DocumentElement(n *html.Node) *html.Node {
	if n == nil || n.Type == html.ElementNode {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

// AttrName returns the qualified name of an attribute. The HTML parser moves
// the prefix of foreign attributes (xlink:href, xml:lang) into Namespace.
func AttrName(a html.Attribute) string {
	if a.Namespace != "" {
		return a.Namespace + ":" + a.Key
	}
	return a.Key
}

// Attr returns the value of the named attribute
func Attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if AttrName(a) == name {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether n carries at least one of the named attributes
func HasAttr(n *html.Node, names ...string) bool {
	for _, name := range names {
		if _, ok := Attr(n, name); ok {
			return true
		}
	}
	return false
}

// SetAttr sets or replaces an attribute value
func SetAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if AttrName(a) == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes an attribute if present
func RemoveAttr(n *html.Node, name string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if AttrName(a) != name {
			out = append(out, a)
		}
	}
	n.Attr = out
}

// LocalName strips the prefix from an element name
func LocalName(n *html.Node) string {
	if i := strings.IndexByte(n.Data, ':'); i >= 0 {
		return n.Data[i+1:]
	}
	return n.Data
}

// Prefix returns the prefix of an element name, or ""
func Prefix(n *html.Node) string {
	if i := strings.IndexByte(n.Data, ':'); i >= 0 {
		return n.Data[:i]
	}
	return ""
}

// LookupNamespace finds the namespace URI bound to prefix at n by walking up
// the ancestors' xmlns declarations. An empty prefix looks up the default
// namespace.
func LookupNamespace(n *html.Node, prefix string) (string, bool) {
	name := "xmlns"
	if prefix != "" {
		name = "xmlns:" + prefix
	}
	for ; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if v, ok := Attr(n, name); ok {
			return v, true
		}
	}
	return "", false
}

// Elements returns the element children of n
func Elements(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// ElementsByName returns every descendant element of n with the given local
// name, in document order.
func ElementsByName(n *html.Node, local string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if LocalName(c) == local {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// Text concatenates the text content of all descendants of n
func Text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				sb.WriteString(c.Data)
			case html.ElementNode:
				walk(c)
			}
		}
	}
	walk(n)
	return sb.String()
}
