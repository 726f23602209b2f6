package rdfa

import (
	"maps"
	"slices"
	"strings"

	"github.com/aleksaelezovic/rdfa/pkg/rdf"
	"github.com/aleksaelezovic/rdfa/pkg/vocab"
)

// IdentifierTable maps CURIE prefixes and terms to IRIs for one element.
// A table is never modified once built: an element that declares nothing
// shares its parent's table, one that declares something gets a copy with
// the declarations applied.
type IdentifierTable struct {
	version       Version
	prefixes      map[string]string
	terms         map[string]string
	vocabulary    string
	defaultPrefix string
}

func newIdentifierTable(version Version) *IdentifierTable {
	return &IdentifierTable{
		version:       version,
		prefixes:      make(map[string]string),
		terms:         make(map[string]string),
		defaultPrefix: DefaultPrefixBase,
	}
}

// NewIdentifierTable returns the initial table of a document with the given
// version and host language.
func NewIdentifierTable(version Version, host HostLanguage) *IdentifierTable {
	if version == VersionAuto {
		version = Version11
	}
	return initialTable(version, host)
}

// Prefix returns the IRI bound to prefix
func (t *IdentifierTable) Prefix(prefix string) (string, bool) {
	if t.version.lowercasePrefixes() {
		prefix = strings.ToLower(prefix)
	}
	iri, ok := t.prefixes[prefix]
	return iri, ok
}

// Vocabulary returns the default vocabulary, or "" if none is in effect
func (t *IdentifierTable) Vocabulary() string {
	return t.vocabulary
}

// DefaultPrefix returns the IRI that CURIEs with an empty prefix expand against
func (t *IdentifierTable) DefaultPrefix() string {
	return t.defaultPrefix
}

// ResolveCURIE expands a "prefix:reference" value. The "_" prefix yields
// blank nodes from bnodes: "_:" is the reserved anonymous node and "_:x"
// the same node for every occurrence of x. It returns nil when value has
// no colon, uses an undeclared or malformed prefix, or is a "p::x" form.
func (t *IdentifierTable) ResolveCURIE(value string, bnodes *BlankNodes) rdf.Term {
	prefix, reference, ok := strings.Cut(value, ":")
	if !ok {
		return nil
	}
	if strings.HasPrefix(reference, ":") {
		return nil
	}

	switch {
	case prefix == "":
		return rdf.NewNamedNode(t.defaultPrefix + reference)
	case prefix == "_":
		if bnodes == nil {
			return nil
		}
		if reference == "" {
			return bnodes.Anonymous()
		}
		return bnodes.Named(reference)
	case !vocab.IsNCName(prefix):
		return nil
	}

	if base, ok := t.Prefix(prefix); ok {
		return rdf.NewNamedNode(base + reference)
	}
	return nil
}

// ResolveTerm expands a bare term. An exact match wins over a match that
// differs in case only; failing both, the default vocabulary is used. Values
// that are not NCNames are never terms.
func (t *IdentifierTable) ResolveTerm(value string) *rdf.NamedNode {
	if !vocab.IsNCName(value) {
		return nil
	}
	if iri, ok := t.terms[value]; ok {
		return rdf.NewNamedNode(iri)
	}
	// sorted so that the result does not depend on map order when several
	// terms differ only in case
	for _, term := range slices.Sorted(maps.Keys(t.terms)) {
		if strings.EqualFold(term, value) {
			return rdf.NewNamedNode(t.terms[term])
		}
	}
	if t.vocabulary != "" {
		return rdf.NewNamedNode(t.vocabulary + value)
	}
	return nil
}

func (t *IdentifierTable) clone() *IdentifierTable {
	return &IdentifierTable{
		version:       t.version,
		prefixes:      maps.Clone(t.prefixes),
		terms:         maps.Clone(t.terms),
		vocabulary:    t.vocabulary,
		defaultPrefix: t.defaultPrefix,
	}
}

// merge copies the definitions of a vocabulary document into t. Only used
// while t is still private to its builder.
func (t *IdentifierTable) merge(v *vocab.Vocabulary) {
	for prefix, iri := range v.Prefixes {
		t.prefixes[prefix] = iri
	}
	for term, iri := range v.Terms {
		t.terms[term] = iri
	}
	if v.Vocabulary != "" {
		t.vocabulary = v.Vocabulary
	}
}

// tableBuilder derives a table from a parent, copying it on the first write
type tableBuilder struct {
	parent *IdentifierTable
	table  *IdentifierTable
}

func newTableBuilder(parent *IdentifierTable) *tableBuilder {
	return &tableBuilder{parent: parent}
}

func (b *tableBuilder) current() *IdentifierTable {
	if b.table != nil {
		return b.table
	}
	return b.parent
}

func (b *tableBuilder) writable() *IdentifierTable {
	if b.table == nil {
		b.table = b.parent.clone()
	}
	return b.table
}

func (b *tableBuilder) merge(v *vocab.Vocabulary) {
	if len(v.Prefixes) == 0 && len(v.Terms) == 0 && v.Vocabulary == "" {
		return
	}
	b.writable().merge(v)
}

func (b *tableBuilder) setPrefix(prefix, iri string) {
	b.writable().prefixes[prefix] = iri
}

func (b *tableBuilder) setVocabulary(iri string) {
	if b.current().vocabulary == iri {
		return
	}
	b.writable().vocabulary = iri
}

func (b *tableBuilder) setDefaultPrefix(iri string) {
	if b.current().defaultPrefix == iri {
		return
	}
	b.writable().defaultPrefix = iri
}

func (b *tableBuilder) build() *IdentifierTable {
	return b.current()
}
