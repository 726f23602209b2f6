package rdf

import (
	"bytes"
	"testing"
)

func TestNamedNode(t *testing.T) {
	node := NewNamedNode("http://example.org/resource")

	if node.Type() != TermTypeNamedNode {
		t.Errorf("Expected TermTypeNamedNode, got %v", node.Type())
	}
	if node.String() != "<http://example.org/resource>" {
		t.Errorf("Unexpected string form %s", node.String())
	}
	if !node.Equals(NewNamedNode("http://example.org/resource")) {
		t.Error("Equal IRIs should be equal")
	}
	if node.Equals(NewBlankNode("http://example.org/resource")) {
		t.Error("NamedNode should not equal a BlankNode")
	}
}

func TestBlankNode(t *testing.T) {
	node := NewBlankNode("b1")

	if node.Type() != TermTypeBlankNode {
		t.Errorf("Expected TermTypeBlankNode, got %v", node.Type())
	}
	if node.String() != "_:b1" {
		t.Errorf("Unexpected string form %s", node.String())
	}
	if !node.Equals(NewBlankNode("b1")) || node.Equals(NewBlankNode("b2")) {
		t.Error("Blank nodes compare by ID")
	}
}

func TestLiteral_String(t *testing.T) {
	tests := []struct {
		name     string
		literal  *Literal
		expected string
	}{
		{"plain", NewLiteral("hello"), `"hello"`},
		{"language", NewLiteralWithLanguage("hello", "en"), `"hello"@en`},
		{"typed", NewLiteralWithDatatype("42", XSDInteger), `"42"^^<http://www.w3.org/2001/XMLSchema#integer>`},
		{"escaped", NewLiteral("a \"quoted\"\nline"), `"a \"quoted\"\nline"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.literal.String(); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestLiteral_Equals(t *testing.T) {
	tests := []struct {
		name  string
		a, b  *Literal
		equal bool
	}{
		{"same plain", NewLiteral("x"), NewLiteral("x"), true},
		{"different value", NewLiteral("x"), NewLiteral("y"), false},
		{"language case", NewLiteralWithLanguage("x", "en-US"), NewLiteralWithLanguage("x", "en-us"), true},
		{"different language", NewLiteralWithLanguage("x", "en"), NewLiteralWithLanguage("x", "de"), false},
		{"typed vs plain", NewLiteralWithDatatype("x", XSDString), NewLiteral("x"), false},
		{"same type", NewLiteralWithDatatype("1", XSDInteger), NewLiteralWithDatatype("1", XSDInteger), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equals(tt.b); got != tt.equal {
				t.Errorf("Equals = %v, expected %v", got, tt.equal)
			}
		})
	}
}

func TestTriple_String(t *testing.T) {
	triple := NewTriple(
		NewNamedNode("http://example.org/s"),
		NewNamedNode("http://example.org/p"),
		NewLiteral("o"),
	)
	expected := `<http://example.org/s> <http://example.org/p> "o" .`
	if triple.String() != expected {
		t.Errorf("Expected %s, got %s", expected, triple.String())
	}
}

func TestWriteNTriples(t *testing.T) {
	triples := []*Triple{
		NewTriple(NewBlankNode("b"), RDFType, NewNamedNode("http://example.org/T")),
		NewTriple(NewBlankNode("b"), NewNamedNode("http://example.org/p"), NewLiteralWithDatatype("x", XSDString)),
		NewTriple(NewBlankNode("b"), NewNamedNode("http://example.org/q"), NewLiteralWithLanguage("tab\there", "EN")),
	}

	var buf bytes.Buffer
	if err := WriteNTriples(&buf, triples); err != nil {
		t.Fatalf("WriteNTriples failed: %v", err)
	}
	expected := "_:b <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.org/T> .\n" +
		"_:b <http://example.org/p> \"x\" .\n" +
		"_:b <http://example.org/q> \"tab\\there\"@en .\n"
	if buf.String() != expected {
		t.Errorf("Unexpected output:\n%s", buf.String())
	}

	sorted := SortedNTriples(triples)
	if sorted[:len("_:b <http://example.org/p>")] != "_:b <http://example.org/p>" {
		t.Errorf("Expected sorted output to start with the p statement, got:\n%s", sorted)
	}
}
