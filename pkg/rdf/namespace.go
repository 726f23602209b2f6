package rdf

// Namespace IRIs used across the module.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
	RDFaNamespace = "http://www.w3.org/ns/rdfa#"
	XHTMLVocab    = "http://www.w3.org/1999/xhtml/vocab#"
)

var (
	RDFType       = NewNamedNode(RDFNamespace + "type")
	RDFFirst      = NewNamedNode(RDFNamespace + "first")
	RDFRest       = NewNamedNode(RDFNamespace + "rest")
	RDFNil        = NewNamedNode(RDFNamespace + "nil")
	RDFXMLLiteral = NewNamedNode(RDFNamespace + "XMLLiteral")
	RDFLangString = NewNamedNode(RDFNamespace + "langString")
)

// Predicates of vocabulary documents declaring terms, prefixes and default vocabularies.
var (
	RDFaTerm       = NewNamedNode(RDFaNamespace + "term")
	RDFaPrefix     = NewNamedNode(RDFaNamespace + "prefix")
	RDFaURI        = NewNamedNode(RDFaNamespace + "uri")
	RDFaVocabulary = NewNamedNode(RDFaNamespace + "vocabulary")
)

// Helper functions for common XSD datatypes
var (
	XSDString   = NewNamedNode(XSDNamespace + "string")
	XSDInteger  = NewNamedNode(XSDNamespace + "integer")
	XSDDecimal  = NewNamedNode(XSDNamespace + "decimal")
	XSDDouble   = NewNamedNode(XSDNamespace + "double")
	XSDBoolean  = NewNamedNode(XSDNamespace + "boolean")
	XSDDateTime = NewNamedNode(XSDNamespace + "dateTime")
	XSDDate     = NewNamedNode(XSDNamespace + "date")
)
