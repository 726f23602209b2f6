package markup

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/net/html"
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\t", "&#9;", "\n", "&#10;", "\r", "&#13;")
)

// RenderXML writes n and its descendants as XML. Elements without children
// are written in the self-closing form; attributes keep their order.
// Document and doctype nodes are skipped, only their children are written.
func RenderXML(w io.Writer, n *html.Node) error {
	bw := bufio.NewWriter(w)
	renderXML(bw, n)
	return bw.Flush()
}

// RenderChildrenXML writes the children of n as XML
func RenderChildrenXML(w io.Writer, n *html.Node) error {
	bw := bufio.NewWriter(w)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderXML(bw, c)
	}
	return bw.Flush()
}

// EscapeText escapes the characters that are markup in XML text content
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

func renderXML(w *bufio.Writer, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.WriteString(textEscaper.Replace(n.Data))
	case html.CommentNode:
		w.WriteString("<!--")
		w.WriteString(n.Data)
		w.WriteString("-->")
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			renderXML(w, c)
		}
	case html.ElementNode:
		w.WriteByte('<')
		w.WriteString(n.Data)
		for _, a := range n.Attr {
			w.WriteByte(' ')
			w.WriteString(AttrName(a))
			w.WriteString(`="`)
			w.WriteString(attrEscaper.Replace(a.Val))
			w.WriteByte('"')
		}
		if n.FirstChild == nil {
			w.WriteString("/>")
			return
		}
		w.WriteByte('>')
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			renderXML(w, c)
		}
		w.WriteString("</")
		w.WriteString(n.Data)
		w.WriteByte('>')
	}
}
