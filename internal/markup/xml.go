package markup

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// ParseXML builds a document node from XML input. Names keep their prefixes;
// namespace resolution is left to LookupNamespace. HTML named entities are
// accepted so that XHTML documents with &nbsp; and friends parse.
func ParseXML(r io.Reader) (*html.Node, error) {
	decoder := xml.NewDecoder(r)
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = charset.NewReaderLabel

	doc := &html.Node{Type: html.DocumentNode}
	stack := []*html.Node{doc}
	rootClosed := false

	for {
		tok, err := decoder.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML: %w", err)
		}
		top := stack[len(stack)-1]

		switch t := tok.(type) {
		case xml.StartElement:
			if rootClosed {
				return nil, fmt.Errorf("unexpected element %s after document end", qualified(t.Name))
			}
			n := &html.Node{
				Type: html.ElementNode,
				Data: qualified(t.Name),
				Attr: convertAttrs(t.Attr),
			}
			if t.Name.Space == "" {
				n.DataAtom = atom.Lookup([]byte(t.Name.Local))
			}
			top.AppendChild(n)
			stack = append(stack, n)

		case xml.EndElement:
			name := qualified(t.Name)
			if len(stack) == 1 || top.Data != name {
				return nil, fmt.Errorf("unexpected end element </%s>", name)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 1 {
				rootClosed = true
			}

		case xml.CharData:
			if len(stack) == 1 {
				if !isIgnorable(string(t)) {
					return nil, errors.New("unexpected character data outside root element")
				}
				continue
			}
			if last := top.LastChild; last != nil && last.Type == html.TextNode {
				last.Data += string(t)
				continue
			}
			top.AppendChild(&html.Node{Type: html.TextNode, Data: string(t)})

		case xml.Comment:
			top.AppendChild(&html.Node{Type: html.CommentNode, Data: string(t)})
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("unclosed element <%s>", stack[len(stack)-1].Data)
	}
	if DocumentElement(doc) == nil {
		return nil, io.ErrUnexpectedEOF
	}
	return doc, nil
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func convertAttrs(attrs []xml.Attr) []html.Attribute {
	out := make([]html.Attribute, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, html.Attribute{Key: qualified(a.Name), Val: a.Value})
	}
	return out
}

func isIgnorable(data string) bool {
	return strings.TrimFunc(data, func(r rune) bool {
		return r == '\uFEFF' || unicode.IsSpace(r)
	}) == ""
}
