package vocab

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aleksaelezovic/rdfa/pkg/rdf"
)

// graph is a small subject/predicate index over a triple set
type graph struct {
	triples []*rdf.Triple
}

func newGraph(triples []*rdf.Triple) *graph {
	seen := make(map[string]bool, len(triples))
	g := &graph{}
	for _, t := range triples {
		key := t.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		g.triples = append(g.triples, t)
	}
	return g
}

// objects returns the objects of predicate, optionally restricted to subject
func (g *graph) objects(subject rdf.Term, predicate *rdf.NamedNode) []rdf.Term {
	var out []rdf.Term
	for _, t := range g.triples {
		if !t.Predicate.Equals(predicate) {
			continue
		}
		if subject != nil && !t.Subject.Equals(subject) {
			continue
		}
		out = append(out, t.Object)
	}
	return out
}

func (g *graph) subjects(predicate *rdf.NamedNode, object rdf.Term) []rdf.Term {
	var out []rdf.Term
	for _, t := range g.triples {
		if t.Predicate.Equals(predicate) && t.Object.Equals(object) {
			out = append(out, t.Subject)
		}
	}
	return out
}

// lexical returns the string value of an IRI or literal
func lexical(term rdf.Term) string {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return t.IRI
	case *rdf.Literal:
		return t.Value
	case *rdf.BlankNode:
		return "_:" + t.ID
	}
	return ""
}

// Extract collects the rdfa:term, rdfa:prefix and rdfa:vocabulary
// definitions of a vocabulary document. Definitions that are malformed or
// ambiguous are skipped with a warning note.
func Extract(triples []*rdf.Triple, source string) (*Vocabulary, []Note) {
	g := newGraph(triples)
	v := NewVocabulary()
	var notes []Note
	warn := func(format string, args ...any) {
		notes = append(notes, Note{Level: LevelWarning, Message: fmt.Sprintf(format, args...), Source: source})
	}

	vocabs := g.objects(nil, rdf.RDFaVocabulary)
	switch {
	case len(vocabs) == 1:
		v.Vocabulary = lexical(vocabs[0])
	case len(vocabs) > 1:
		warn("more than one default vocabulary defined in %s; all are ignored", source)
	}

	extractDefinitions(g, rdf.RDFaTerm, rdf.RDFaPrefix, warn, func(name, uri string) {
		v.Terms[name] = uri
	})
	extractDefinitions(g, rdf.RDFaPrefix, rdf.RDFaTerm, warn, func(name, uri string) {
		quoted, suspicious := rdf.QuoteIRI(uri)
		if suspicious {
			warn("unusual character in URI %q; possible error", uri)
		}
		v.Prefixes[strings.ToLower(name)] = quoted
	})

	return v, notes
}

func extractDefinitions(g *graph, kind, opposite *rdf.NamedNode, warn func(string, ...any), define func(name, uri string)) {
	label := strings.TrimPrefix(kind.IRI, rdf.RDFaNamespace)

	// distinct values, in a stable order
	values := make(map[string]rdf.Term)
	for _, o := range g.objects(nil, kind) {
		values[o.String()] = o
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := values[key]
		lit, ok := value.(*rdf.Literal)
		if !ok {
			warn("%s definition %s is not a literal", label, value)
			continue
		}
		if !IsNCName(lit.Value) {
			warn("%s %q is not an NCName", label, lit.Value)
			continue
		}

		subjects := g.subjects(kind, value)
		if len(subjects) != 1 {
			warn("%s %q is defined more than once", label, lit.Value)
			continue
		}
		subject := subjects[0]

		if len(g.objects(subject, kind)) != 1 {
			warn("the node defining %s %q defines other %ss, too", label, lit.Value, label)
			continue
		}
		if len(g.objects(subject, opposite)) != 0 {
			warn("the node defining %s %q also defines a %s", label, lit.Value, strings.TrimPrefix(opposite.IRI, rdf.RDFaNamespace))
			continue
		}

		uris := g.objects(subject, rdf.RDFaURI)
		switch len(uris) {
		case 0:
			warn("no URI defined for %s %q", label, lit.Value)
		case 1:
			define(lit.Value, lexical(uris[0]))
		default:
			warn("more than one URI defined for %s %q", label, lit.Value)
		}
	}
}
