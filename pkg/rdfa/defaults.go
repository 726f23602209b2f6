package rdfa

import (
	"github.com/aleksaelezovic/rdfa/pkg/rdf"
	"github.com/aleksaelezovic/rdfa/pkg/vocab"
)

// URIs of the built-in initial contexts
const (
	CoreProfileURI = "http://www.w3.org/profile/rdfa-1.1"
	HTMLProfileURI = "http://www.w3.org/profile/html-rdfa-1.1"
)

// DefaultPrefixBase is the base of CURIEs with an empty prefix (":next")
const DefaultPrefixBase = rdf.XHTMLVocab

// CoreProfile is the initial context of every RDFa 1.1 document.
var CoreProfile = &vocab.Vocabulary{
	Prefixes: map[string]string{
		"owl":     "http://www.w3.org/2002/07/owl#",
		"gr":      "http://purl.org/goodrelations/v1#",
		"ctag":    "http://commontag.org/ns#",
		"cc":      "http://creativecommons.org/ns#",
		"grddl":   "http://www.w3.org/2003/g/data-view#",
		"rif":     "http://www.w3.org/2007/rif#",
		"sioc":    "http://rdfs.org/sioc/ns#",
		"skos":    "http://www.w3.org/2004/02/skos/core#",
		"xml":     "http://www.w3.org/XML/1998/namespace",
		"rdfs":    "http://www.w3.org/2000/01/rdf-schema#",
		"rev":     "http://purl.org/stuff/rev#",
		"rdfa":    rdf.RDFaNamespace,
		"dc":      "http://purl.org/dc/terms/",
		"dcterms": "http://purl.org/dc/terms/",
		"foaf":    "http://xmlns.com/foaf/0.1/",
		"void":    "http://rdfs.org/ns/void#",
		"ical":    "http://www.w3.org/2002/12/cal/icaltzd#",
		"vcard":   "http://www.w3.org/2006/vcard/ns#",
		"xmlns":   "http://www.w3.org/2000/xmlns/",
		"wdrs":    "http://www.w3.org/2007/05/powder-s#",
		"og":      "http://ogp.me/ns#",
		"wdr":     "http://www.w3.org/2007/05/powder#",
		"rdf":     rdf.RDFNamespace,
		"xhv":     rdf.XHTMLVocab,
		"xsd":     rdf.XSDNamespace,
		"v":       "http://rdf.data-vocabulary.org/#",
		"skosxl":  "http://www.w3.org/2008/05/skos-xl#",
	},
	Terms: map[string]string{
		"describedby": "http://www.w3.org/2007/05/powder-s#describedby",
	},
}

// htmlTerms are the XHTML link relations. They form the HTML initial context
// of RDFa 1.1 and are the only terms of RDFa 1.0.
var htmlTerms = []string{
	"alternate", "appendix", "bookmark", "chapter", "cite", "contents",
	"copyright", "first", "glossary", "help", "icon", "index", "itsRules",
	"last", "license", "meta", "next", "p3pv1", "prev", "role", "section",
	"start", "stylesheet", "subsection", "top", "up",
}

// HTMLProfile is the additional initial context of XHTML and HTML5 documents.
var HTMLProfile = func() *vocab.Vocabulary {
	v := vocab.NewVocabulary()
	for _, term := range htmlTerms {
		v.Terms[term] = rdf.XHTMLVocab + term
	}
	v.Terms["transformation"] = "http://www.w3.org/2003/g/data-view#transformation"
	return v
}()

// initialTable builds the table a document starts with
func initialTable(version Version, host HostLanguage) *IdentifierTable {
	t := newIdentifierTable(version)
	if version == Version10 {
		for _, term := range htmlTerms {
			t.terms[term] = rdf.XHTMLVocab + term
		}
		return t
	}
	t.merge(CoreProfile)
	if host.isHTML() {
		t.merge(HTMLProfile)
	}
	return t
}
