package rdfa

import (
	"strconv"

	"github.com/aleksaelezovic/rdfa/pkg/rdf"
)

// BlankNodes hands out the blank nodes of one document. Nodes named in the
// document ("_:x") are shared by every occurrence of the name; fresh nodes
// are never shared.
type BlankNodes struct {
	prefix    string
	next      int
	named     map[string]*rdf.BlankNode
	anonymous *rdf.BlankNode
}

// NewBlankNodes returns an empty registry. Labels are prefix followed by a
// counter.
func NewBlankNodes(prefix string) *BlankNodes {
	if prefix == "" {
		prefix = "b"
	}
	return &BlankNodes{prefix: prefix, named: make(map[string]*rdf.BlankNode)}
}

// Fresh returns a blank node distinct from every other node of the registry
func (b *BlankNodes) Fresh() *rdf.BlankNode {
	b.next++
	return rdf.NewBlankNode(b.prefix + strconv.Itoa(b.next))
}

// Named returns the node for the CURIE "_:name"
func (b *BlankNodes) Named(name string) *rdf.BlankNode {
	if n, ok := b.named[name]; ok {
		return n
	}
	n := b.Fresh()
	b.named[name] = n
	return n
}

// Anonymous returns the node for the CURIE "_:"
func (b *BlankNodes) Anonymous() *rdf.BlankNode {
	if b.anonymous == nil {
		b.anonymous = b.Fresh()
	}
	return b.anonymous
}

// relabel maps the blank nodes of triples produced by another parser to
// fresh nodes of the registry, consistently within the call
func (b *BlankNodes) relabel(triples []*rdf.Triple) []*rdf.Triple {
	mapping := make(map[string]*rdf.BlankNode)
	term := func(t rdf.Term) rdf.Term {
		bn, ok := t.(*rdf.BlankNode)
		if !ok {
			return t
		}
		if n, ok := mapping[bn.ID]; ok {
			return n
		}
		n := b.Fresh()
		mapping[bn.ID] = n
		return n
	}
	out := make([]*rdf.Triple, 0, len(triples))
	for _, t := range triples {
		out = append(out, rdf.NewTriple(term(t.Subject), t.Predicate, term(t.Object)))
	}
	return out
}
