package rdf

import (
	"fmt"
	"io"
	"strings"
)

// Parser is the interface for parsing RDF data in various formats
type Parser interface {
	// Parse parses RDF data from a reader; relative IRIs resolve against base
	Parse(reader io.Reader, base string) ([]*Triple, error)

	// ContentType returns the MIME type this parser handles
	ContentType() string
}

// MediaType normalizes a Content-Type header value: lower case, parameters
// such as charset removed.
func MediaType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = strings.TrimSpace(ct[:idx])
	}
	return ct
}

// NewParser creates an RDF parser based on the content type
func NewParser(contentType string) (Parser, error) {
	switch MediaType(contentType) {
	case "application/n-triples", "text/plain":
		return &NTriplesParser{}, nil
	case "text/turtle", "application/x-turtle", "text/n3":
		return &TurtleIOParser{}, nil
	case "application/rdf+xml":
		return NewRDFXMLParser(), nil
	case "application/ld+json", "application/json":
		return NewJSONLDParser(), nil
	default:
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}
}

// NTriplesParser parses N-Triples format
type NTriplesParser struct{}

func (p *NTriplesParser) ContentType() string {
	return "application/n-triples"
}

func (p *NTriplesParser) Parse(reader io.Reader, base string) ([]*Triple, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	parser := NewNTriplesParser(string(data))
	triples, err := parser.Parse()
	if err != nil {
		return nil, fmt.Errorf("error parsing N-Triples: %w", err)
	}
	return triples, nil
}

// TurtleIOParser parses Turtle format
type TurtleIOParser struct{}

func (p *TurtleIOParser) ContentType() string {
	return "text/turtle"
}

func (p *TurtleIOParser) Parse(reader io.Reader, base string) ([]*Triple, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	parser := NewTurtleParser(string(data))
	parser.SetBaseURI(base)
	triples, err := parser.Parse()
	if err != nil {
		return nil, fmt.Errorf("error parsing Turtle: %w", err)
	}
	return triples, nil
}

// GetSupportedContentTypes returns a list of all supported content types
func GetSupportedContentTypes() []string {
	return []string{
		"text/turtle",
		"application/x-turtle",
		"text/n3",
		"application/rdf+xml",
		"application/n-triples",
		"text/plain", // Alias for N-Triples
		"application/ld+json",
	}
}
