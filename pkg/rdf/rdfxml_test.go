package rdf

import (
	"strings"
	"testing"
)

const rdfxmlHeader = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:ex="http://example.org/"
         xmlns:rdfa="http://www.w3.org/ns/rdfa#">
`

func parseRDFXML(t *testing.T, body, base string) []*Triple {
	t.Helper()
	triples, err := NewRDFXMLParser().Parse(strings.NewReader(rdfxmlHeader+body+"\n</rdf:RDF>"), base)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return triples
}

func TestRDFXMLParser_SimpleDescription(t *testing.T) {
	triples := parseRDFXML(t, `
  <rdf:Description rdf:about="http://example.org/alice">
    <ex:name>Alice</ex:name>
  </rdf:Description>`, "")

	if len(triples) != 1 {
		t.Fatalf("Expected 1 triple, got %d", len(triples))
	}
	triple := triples[0]
	if getIRI(triple.Subject) != "http://example.org/alice" {
		t.Errorf("Wrong subject: %s", getIRI(triple.Subject))
	}
	if getIRI(triple.Predicate) != "http://example.org/name" {
		t.Errorf("Wrong predicate: %s", getIRI(triple.Predicate))
	}
	if !triple.Object.Equals(NewLiteral("Alice")) {
		t.Errorf("Wrong object: %s", triple.Object)
	}
}

func TestRDFXMLParser_TypedNodeAndResource(t *testing.T) {
	triples := parseRDFXML(t, `
  <ex:Person rdf:about="alice">
    <ex:knows rdf:resource="bob"/>
  </ex:Person>`, "http://example.org/people/")

	expected := []*Triple{
		NewTriple(NewNamedNode("http://example.org/people/alice"), RDFType, NewNamedNode("http://example.org/Person")),
		NewTriple(NewNamedNode("http://example.org/people/alice"), NewNamedNode("http://example.org/knows"), NewNamedNode("http://example.org/people/bob")),
	}
	if !AreGraphsIsomorphic(expected, triples) {
		t.Errorf("Unexpected triples:\n%s", SortedNTriples(triples))
	}
}

func TestRDFXMLParser_LiteralForms(t *testing.T) {
	triples := parseRDFXML(t, `
  <rdf:Description rdf:about="http://example.org/s" xml:lang="en">
    <ex:title>Hello</ex:title>
    <ex:titre xml:lang="fr">Bonjour</ex:titre>
    <ex:count rdf:datatype="http://www.w3.org/2001/XMLSchema#integer">3</ex:count>
    <ex:markup rdf:parseType="Literal"><b>bold</b></ex:markup>
  </rdf:Description>`, "")

	values := make(map[string]Term)
	for _, triple := range triples {
		values[getIRI(triple.Predicate)] = triple.Object
	}

	checks := map[string]*Literal{
		"http://example.org/title":  NewLiteralWithLanguage("Hello", "en"),
		"http://example.org/titre":  NewLiteralWithLanguage("Bonjour", "fr"),
		"http://example.org/count":  NewLiteralWithDatatype("3", XSDInteger),
		"http://example.org/markup": NewLiteralWithDatatype("<b>bold</b>", RDFXMLLiteral),
	}
	for predicate, expected := range checks {
		got, ok := values[predicate]
		if !ok {
			t.Errorf("Missing %s", predicate)
			continue
		}
		if !got.Equals(expected) {
			t.Errorf("%s: expected %s, got %s", predicate, expected, got)
		}
	}
}

func TestRDFXMLParser_BlankNodes(t *testing.T) {
	triples := parseRDFXML(t, `
  <rdf:Description rdf:about="http://example.org/vocab">
    <ex:uses rdf:nodeID="n1"/>
    <ex:nested rdf:parseType="Resource">
      <rdfa:term>name</rdfa:term>
    </ex:nested>
  </rdf:Description>
  <rdf:Description rdf:nodeID="n1">
    <rdfa:prefix>foaf</rdfa:prefix>
  </rdf:Description>`, "")

	n1, n2 := NewBlankNode("x"), NewBlankNode("y")
	vocab := NewNamedNode("http://example.org/vocab")
	expected := []*Triple{
		NewTriple(vocab, NewNamedNode("http://example.org/uses"), n1),
		NewTriple(vocab, NewNamedNode("http://example.org/nested"), n2),
		NewTriple(n2, RDFaTerm, NewLiteral("name")),
		NewTriple(n1, RDFaPrefix, NewLiteral("foaf")),
	}
	if !AreGraphsIsomorphic(expected, triples) {
		t.Errorf("Unexpected triples:\n%s", SortedNTriples(triples))
	}
}

func TestRDFXMLParser_Collection(t *testing.T) {
	triples := parseRDFXML(t, `
  <rdf:Description rdf:about="http://example.org/s">
    <ex:items rdf:parseType="Collection">
      <rdf:Description rdf:about="http://example.org/a"/>
      <rdf:Description rdf:about="http://example.org/b"/>
    </ex:items>
  </rdf:Description>`, "")

	b1, b2 := NewBlankNode("c1"), NewBlankNode("c2")
	expected := []*Triple{
		NewTriple(NewNamedNode("http://example.org/s"), NewNamedNode("http://example.org/items"), b1),
		NewTriple(b1, RDFFirst, NewNamedNode("http://example.org/a")),
		NewTriple(b1, RDFRest, b2),
		NewTriple(b2, RDFFirst, NewNamedNode("http://example.org/b")),
		NewTriple(b2, RDFRest, RDFNil),
	}
	if !AreGraphsIsomorphic(expected, triples) {
		t.Errorf("Unexpected triples:\n%s", SortedNTriples(triples))
	}
}

func TestRDFXMLParser_PropertyAttributes(t *testing.T) {
	triples := parseRDFXML(t, `
  <rdf:Description rdf:about="http://example.org/s" ex:name="Sam">
    <ex:address ex:city="Paris"/>
  </rdf:Description>`, "")

	addr := NewBlankNode("a")
	s := NewNamedNode("http://example.org/s")
	expected := []*Triple{
		NewTriple(s, NewNamedNode("http://example.org/name"), NewLiteral("Sam")),
		NewTriple(s, NewNamedNode("http://example.org/address"), addr),
		NewTriple(addr, NewNamedNode("http://example.org/city"), NewLiteral("Paris")),
	}
	if !AreGraphsIsomorphic(expected, triples) {
		t.Errorf("Unexpected triples:\n%s", SortedNTriples(triples))
	}
}

func TestRDFXMLParser_XMLBase(t *testing.T) {
	triples := parseRDFXML(t, `
  <rdf:Description rdf:ID="term" xml:base="http://example.org/vocab">
    <ex:p rdf:resource="#other"/>
  </rdf:Description>`, "http://ignored.example/")

	if len(triples) != 1 {
		t.Fatalf("Expected 1 triple, got %d", len(triples))
	}
	if getIRI(triples[0].Subject) != "http://example.org/vocab#term" {
		t.Errorf("Wrong subject: %s", getIRI(triples[0].Subject))
	}
	if getIRI(triples[0].Object) != "http://example.org/vocab#other" {
		t.Errorf("Wrong object: %s", getIRI(triples[0].Object))
	}
}

func TestRDFXMLParser_MalformedXML(t *testing.T) {
	_, err := NewRDFXMLParser().Parse(strings.NewReader(rdfxmlHeader+`<rdf:Description>`), "")
	if err == nil {
		t.Error("Expected error for truncated document")
	}
}
