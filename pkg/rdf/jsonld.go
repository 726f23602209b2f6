package rdf

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/piprate/json-gold/ld"
)

// JSONLDParser parses JSON-LD through the json-gold processor. Only the
// default graph is returned; named graphs are ignored.
type JSONLDParser struct {
	// DocumentLoader resolves remote contexts; nil uses json-gold's default HTTP loader
	DocumentLoader ld.DocumentLoader
}

// NewJSONLDParser creates a new JSON-LD parser
func NewJSONLDParser() *JSONLDParser {
	return &JSONLDParser{}
}

func (p *JSONLDParser) ContentType() string {
	return "application/ld+json"
}

// Parse parses JSON-LD and returns the triples of the default graph
func (p *JSONLDParser) Parse(reader io.Reader, base string) ([]*Triple, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading JSON-LD: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}

	opts := ld.NewJsonLdOptions(base)
	if p.DocumentLoader != nil {
		opts.DocumentLoader = p.DocumentLoader
	}

	result, err := ld.NewJsonLdProcessor().ToRDF(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("error converting JSON-LD to RDF: %w", err)
	}
	dataset, ok := result.(*ld.RDFDataset)
	if !ok {
		return nil, fmt.Errorf("unexpected JSON-LD result %T", result)
	}

	var triples []*Triple
	for _, quad := range dataset.Graphs["@default"] {
		if quad == nil {
			continue
		}
		s, err := fromJSONGold(quad.Subject)
		if err != nil {
			return nil, err
		}
		pr, err := fromJSONGold(quad.Predicate)
		if err != nil {
			return nil, err
		}
		o, err := fromJSONGold(quad.Object)
		if err != nil {
			return nil, err
		}
		triples = append(triples, NewTriple(s, pr, o))
	}
	return triples, nil
}

// fromJSONGold converts a json-gold node into a term
func fromJSONGold(node ld.Node) (Term, error) {
	switch n := node.(type) {
	case ld.IRI:
		return NewNamedNode(n.Value), nil
	case *ld.IRI:
		return NewNamedNode(n.Value), nil
	case ld.BlankNode:
		return NewBlankNode(trimBlankPrefix(n.Attribute)), nil
	case *ld.BlankNode:
		return NewBlankNode(trimBlankPrefix(n.Attribute)), nil
	case ld.Literal:
		return literalFromJSONGold(n), nil
	case *ld.Literal:
		return literalFromJSONGold(*n), nil
	default:
		return nil, fmt.Errorf("unsupported JSON-LD node %T", node)
	}
}

func literalFromJSONGold(l ld.Literal) *Literal {
	if l.Language != "" {
		return NewLiteralWithLanguage(l.Value, l.Language)
	}
	if l.Datatype == "" || l.Datatype == XSDString.IRI {
		return NewLiteral(l.Value)
	}
	return NewLiteralWithDatatype(l.Value, NewNamedNode(l.Datatype))
}

func trimBlankPrefix(id string) string {
	if len(id) > 2 && id[:2] == "_:" {
		return id[2:]
	}
	return id
}
