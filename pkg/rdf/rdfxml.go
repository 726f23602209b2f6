package rdf

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// RDFXMLParser parses RDF/XML format.
// It supports:
// - rdf:Description and typed node elements
// - rdf:about, rdf:ID, rdf:nodeID, rdf:resource
// - property attributes on node elements
// - rdf:datatype, inherited xml:lang and xml:base
// - rdf:parseType="Resource", "Collection" and "Literal"
//
// Not supported:
// - reification of statements carrying rdf:ID on property elements
// - rdf:li container membership numbering
type RDFXMLParser struct{}

// NewRDFXMLParser creates a new RDF/XML parser
func NewRDFXMLParser() *RDFXMLParser {
	return &RDFXMLParser{}
}

func (p *RDFXMLParser) ContentType() string {
	return "application/rdf+xml"
}

const xmlNS = "http://www.w3.org/XML/1998/namespace"

type rdfxmlScope struct {
	base string
	lang string
}

type rdfxmlState struct {
	decoder *xml.Decoder
	triples []*Triple
	bnodes  map[string]*BlankNode
	counter int
}

// Parse parses RDF/XML and returns triples
func (p *RDFXMLParser) Parse(reader io.Reader, base string) ([]*Triple, error) {
	st := &rdfxmlState{
		decoder: xml.NewDecoder(reader),
		bnodes:  make(map[string]*BlankNode),
	}
	scope := rdfxmlScope{base: base}

	for {
		token, err := st.decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("XML parse error: %w", err)
		}

		elem, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		if elem.Name.Space == RDFNamespace && elem.Name.Local == "RDF" {
			rootScope := scope.enter(elem)
			if err := st.parseNodeList(rootScope); err != nil {
				return nil, err
			}
			continue
		}
		// a document without rdf:RDF holds a single node element
		if _, err := st.parseNodeElement(elem, scope); err != nil {
			return nil, err
		}
	}

	return st.triples, nil
}

func (s rdfxmlScope) enter(elem xml.StartElement) rdfxmlScope {
	if v, ok := getAttr(elem.Attr, xmlNS, "base"); ok {
		s.base = ResolveIRI(s.base, v)
	}
	if v, ok := getAttr(elem.Attr, xmlNS, "lang"); ok {
		s.lang = v
	}
	return s
}

func (st *rdfxmlState) blank(label string) *BlankNode {
	if label == "" {
		st.counter++
		return NewBlankNode(fmt.Sprintf("b%d", st.counter))
	}
	if b, ok := st.bnodes[label]; ok {
		return b
	}
	b := NewBlankNode(label)
	st.bnodes[label] = b
	return b
}

func (st *rdfxmlState) add(s, p, o Term) {
	st.triples = append(st.triples, NewTriple(s, p, o))
}

// parseNodeList parses node elements until the enclosing end element
func (st *rdfxmlState) parseNodeList(scope rdfxmlScope) error {
	for {
		token, err := st.decoder.Token()
		if err != nil {
			return fmt.Errorf("error reading node list: %w", err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			if _, err := st.parseNodeElement(t, scope); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// parseNodeElement parses a node element whose start tag has been read and
// returns its subject
func (st *rdfxmlState) parseNodeElement(elem xml.StartElement, scope rdfxmlScope) (Term, error) {
	scope = scope.enter(elem)

	var subject Term
	if about, ok := getAttr(elem.Attr, RDFNamespace, "about"); ok {
		subject = NewNamedNode(ResolveIRI(scope.base, about))
	} else if id, ok := getAttr(elem.Attr, RDFNamespace, "ID"); ok {
		subject = NewNamedNode(ResolveIRI(scope.base, "#"+id))
	} else if nodeID, ok := getAttr(elem.Attr, RDFNamespace, "nodeID"); ok {
		subject = st.blank(nodeID)
	} else {
		subject = st.blank("")
	}

	if !(elem.Name.Space == RDFNamespace && elem.Name.Local == "Description") {
		st.add(subject, RDFType, NewNamedNode(elem.Name.Space+elem.Name.Local))
	}

	for _, attr := range elem.Attr {
		if isSyntaxAttr(attr.Name) {
			continue
		}
		predicate := NewNamedNode(attr.Name.Space + attr.Name.Local)
		if predicate.IRI == RDFType.IRI {
			st.add(subject, RDFType, NewNamedNode(ResolveIRI(scope.base, attr.Value)))
			continue
		}
		st.add(subject, predicate, st.plainLiteral(attr.Value, scope))
	}

	for {
		token, err := st.decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("error reading node element: %w", err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			if err := st.parsePropertyElement(subject, t, scope); err != nil {
				return nil, err
			}
		case xml.EndElement:
			return subject, nil
		}
	}
}

func (st *rdfxmlState) plainLiteral(value string, scope rdfxmlScope) *Literal {
	if scope.lang != "" {
		return NewLiteralWithLanguage(value, scope.lang)
	}
	return NewLiteral(value)
}

// parsePropertyElement parses one property element of subject
func (st *rdfxmlState) parsePropertyElement(subject Term, elem xml.StartElement, scope rdfxmlScope) error {
	scope = scope.enter(elem)
	predicate := NewNamedNode(elem.Name.Space + elem.Name.Local)

	if resource, ok := getAttr(elem.Attr, RDFNamespace, "resource"); ok {
		st.add(subject, predicate, NewNamedNode(ResolveIRI(scope.base, resource)))
		return st.decoder.Skip()
	}
	if nodeID, ok := getAttr(elem.Attr, RDFNamespace, "nodeID"); ok {
		st.add(subject, predicate, st.blank(nodeID))
		return st.decoder.Skip()
	}

	parseType, _ := getAttr(elem.Attr, RDFNamespace, "parseType")
	switch parseType {
	case "Resource":
		node := st.blank("")
		st.add(subject, predicate, node)
		return st.parsePropertyList(node, scope)
	case "Collection":
		return st.parseCollection(subject, predicate, scope)
	case "Literal":
		content, err := st.innerXML()
		if err != nil {
			return err
		}
		st.add(subject, predicate, NewLiteralWithDatatype(content, RDFXMLLiteral))
		return nil
	}

	datatype, hasDatatype := getAttr(elem.Attr, RDFNamespace, "datatype")

	// property attributes on an empty property element describe a fresh node
	var propertyAttrs []xml.Attr
	for _, attr := range elem.Attr {
		if !isSyntaxAttr(attr.Name) {
			propertyAttrs = append(propertyAttrs, attr)
		}
	}

	var text strings.Builder
	var object Term
	for {
		token, err := st.decoder.Token()
		if err != nil {
			return fmt.Errorf("error reading property content: %w", err)
		}
		switch t := token.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			if object != nil {
				return fmt.Errorf("property %s has more than one node element", predicate.IRI)
			}
			object, err = st.parseNodeElement(t, scope)
			if err != nil {
				return err
			}
		case xml.EndElement:
			switch {
			case object != nil:
				st.add(subject, predicate, object)
			case len(propertyAttrs) > 0:
				node := st.blank("")
				for _, attr := range propertyAttrs {
					st.add(node, NewNamedNode(attr.Name.Space+attr.Name.Local), st.plainLiteral(attr.Value, scope))
				}
				st.add(subject, predicate, node)
			case hasDatatype:
				st.add(subject, predicate, NewLiteralWithDatatype(text.String(), NewNamedNode(ResolveIRI(scope.base, datatype))))
			default:
				st.add(subject, predicate, st.plainLiteral(text.String(), scope))
			}
			return nil
		}
	}
}

// parsePropertyList parses property elements of node until the enclosing end element
func (st *rdfxmlState) parsePropertyList(node Term, scope rdfxmlScope) error {
	for {
		token, err := st.decoder.Token()
		if err != nil {
			return fmt.Errorf("error reading property list: %w", err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			if err := st.parsePropertyElement(node, t, scope); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (st *rdfxmlState) parseCollection(subject Term, predicate *NamedNode, scope rdfxmlScope) error {
	var items []Term
	for {
		token, err := st.decoder.Token()
		if err != nil {
			return fmt.Errorf("error reading collection: %w", err)
		}
		if t, ok := token.(xml.StartElement); ok {
			item, err := st.parseNodeElement(t, scope)
			if err != nil {
				return err
			}
			items = append(items, item)
			continue
		}
		if _, ok := token.(xml.EndElement); ok {
			break
		}
	}

	var head Term = RDFNil
	for i := len(items) - 1; i >= 0; i-- {
		node := st.blank("")
		st.add(node, RDFFirst, items[i])
		st.add(node, RDFRest, head)
		head = node
	}
	st.add(subject, predicate, head)
	return nil
}

// innerXML re-serializes the content of the current element
func (st *rdfxmlState) innerXML() (string, error) {
	var buf strings.Builder
	enc := xml.NewEncoder(&buf)
	depth := 0
	for {
		token, err := st.decoder.Token()
		if err != nil {
			return "", fmt.Errorf("error reading literal content: %w", err)
		}
		switch token.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				if err := enc.Flush(); err != nil {
					return "", err
				}
				return buf.String(), nil
			}
			depth--
		}
		if err := enc.EncodeToken(xml.CopyToken(token)); err != nil {
			return "", err
		}
	}
}

func isSyntaxAttr(name xml.Name) bool {
	switch name.Space {
	case "xmlns", xmlNS:
		return true
	case "":
		return name.Local == "xmlns"
	case RDFNamespace:
		switch name.Local {
		case "about", "ID", "nodeID", "resource", "datatype", "parseType":
			return true
		}
	}
	return false
}

// getAttr gets an attribute value by namespace and local name
func getAttr(attrs []xml.Attr, namespace, local string) (string, bool) {
	for _, attr := range attrs {
		if attr.Name.Space == namespace && attr.Name.Local == local {
			return attr.Value, true
		}
	}
	return "", false
}
