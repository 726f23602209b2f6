package rdfa

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/aleksaelezovic/rdfa/internal/markup"
	"github.com/aleksaelezovic/rdfa/pkg/rdf"
	"github.com/aleksaelezovic/rdfa/pkg/vocab"
	"go.trai.ch/zerr"
	"golang.org/x/net/html"
)

// ExecutionContext is the state in effect at one element: the inherited
// values with the element's own declarations applied.
type ExecutionContext struct {
	Base    string
	Lang    string
	Table   *IdentifierTable
	Version Version
	Host    HostLanguage

	node *html.Node
	w    *walker

	// xmlns holds the namespace declarations in scope, by prefix, for the
	// serialization of XML literals. Shared with the parent unless the
	// element declares a namespace.
	xmlns     map[string]string
	defaultNS string

	// settingSubject is set when the element's object resource becomes the
	// subject of its children; the children then start a new list scope
	settingSubject bool
	lists          *listMapping
}

// newContext builds the context of node. parent is nil for the document
// element. The returned error wraps ErrFatalVocabulary when a vocabulary
// referenced by the document element cannot be resolved.
func (w *walker) newContext(node *html.Node, parent *ExecutionContext) (*ExecutionContext, error) {
	c := &ExecutionContext{
		node:    node,
		w:       w,
		Version: w.version,
		Host:    w.host,
	}
	if parent == nil {
		c.Base = w.base
		c.Table = initialTable(w.version, w.host)
		c.xmlns = map[string]string{}
		c.lists = newListMapping()
	} else {
		c.Base = parent.Base
		c.Lang = parent.Lang
		c.Table = parent.Table
		c.xmlns = parent.xmlns
		c.defaultNS = parent.defaultNS
		c.lists = parent.lists
	}

	if c.Host.acceptsXMLBase() {
		if b, ok := markup.Attr(node, "xml:base"); ok {
			c.Base = rdf.ResolveIRI(c.Base, strings.TrimSpace(b))
		}
	}
	c.setLang()
	if ns, ok := markup.Attr(node, "xmlns"); ok {
		c.defaultNS = ns
	}

	table, err := c.buildTable(parent == nil)
	if err != nil {
		return nil, err
	}
	c.Table = table
	return c, nil
}

func (c *ExecutionContext) setLang() {
	xmlLang, hasXMLLang := markup.Attr(c.node, "xml:lang")
	lang, hasLang := markup.Attr(c.node, "lang")
	if hasXMLLang && hasLang && !strings.EqualFold(xmlLang, lang) {
		c.infof("both xml:lang and lang used on an element with different values; xml:lang prevails (%s and %s)", xmlLang, lang)
	}
	switch {
	case hasXMLLang:
		c.Lang = strings.TrimSpace(xmlLang)
	case hasLang:
		c.Lang = strings.TrimSpace(lang)
	}
}

// buildTable applies the element's declarations to the inherited table,
// lowest priority first: @profile vocabularies, @vocab, xmlns: prefixes and
// finally @prefix.
func (c *ExecutionContext) buildTable(root bool) (*IdentifierTable, error) {
	b := newTableBuilder(c.Table)

	if c.Version.vocabularies() {
		if err := c.applyProfiles(b, root); err != nil {
			return nil, err
		}
		if v, ok := markup.Attr(c.node, "vocab"); ok {
			v = strings.TrimSpace(v)
			if v == "" {
				b.setVocabulary("")
			} else {
				b.setVocabulary(c.quoteURI("vocab", v))
			}
		}
	}

	fromXMLNS := c.applyXMLNS(b)
	if c.Version.vocabularies() {
		c.applyPrefixes(b, fromXMLNS)
	}
	return b.build(), nil
}

// applyProfiles merges the vocabularies listed in @profile. They are applied
// right to left so that the left-most one wins.
func (c *ExecutionContext) applyProfiles(b *tableBuilder, root bool) error {
	val, ok := markup.Attr(c.node, "profile")
	if !ok {
		return nil
	}
	uris := strings.Fields(val)
	for i := len(uris) - 1; i >= 0; i-- {
		uri := c.pureURI(uris[i]).IRI
		if vocab.IsExcluded(uri) {
			continue
		}
		if c.w.resolver == nil {
			c.warnf("no vocabulary resolver configured; profile <%s> ignored", uri)
			continue
		}
		v, notes, err := c.w.resolver.Resolve(c.w.ctx, uri)
		for _, n := range notes {
			c.w.note(n, c.node)
		}
		switch {
		case err == nil:
			b.merge(v)
		case errors.Is(err, vocab.ErrInFlight):
			c.warnf("profile <%s> refers back to itself; ignored", uri)
		case root:
			c.w.report(Diagnostic{
				Severity: SeverityError,
				Message:  fmt.Sprintf("profile <%s> could not be dereferenced: %v", uri, err),
				Node:     c.node.Data,
				Context:  uri,
				Fatal:    true,
			})
			return zerr.With(errors.Join(ErrFatalVocabulary, err), "profile", uri)
		default:
			c.warnf("profile <%s> could not be dereferenced, ignored: %v", uri, err)
		}
	}
	return nil
}

// applyXMLNS records the xmlns:p declarations of the element as prefixes. It
// returns the prefixes it set.
func (c *ExecutionContext) applyXMLNS(b *tableBuilder) map[string]bool {
	var declared map[string]bool
	for _, a := range c.node.Attr {
		name, ok := strings.CutPrefix(markup.AttrName(a), "xmlns:")
		if !ok || name == "" {
			continue
		}
		if name == "_" {
			c.warnf("the '_' CURIE prefix is reserved for blank nodes and cannot be changed")
			continue
		}
		if strings.Contains(name, ":") {
			c.warnf("the character ':' is not valid in a CURIE prefix: %s", name)
			continue
		}

		if declared == nil {
			declared = make(map[string]bool)
			c.xmlns = maps.Clone(c.xmlns)
		}
		c.xmlns[name] = a.Val

		prefix := name
		if c.Version.lowercasePrefixes() {
			prefix = strings.ToLower(prefix)
		}
		b.setPrefix(prefix, c.quoteURI("xmlns:"+name, a.Val))
		declared[prefix] = true
	}
	return declared
}

// applyPrefixes handles @prefix, a white space separated list of
// "name: URI" pairs. A name of ":" sets the empty prefix.
func (c *ExecutionContext) applyPrefixes(b *tableBuilder, fromXMLNS map[string]bool) {
	val, ok := markup.Attr(c.node, "prefix")
	if !ok {
		return
	}
	fields := strings.Fields(val)
	for i := 0; i < len(fields); i += 2 {
		name := fields[i]
		if i == len(fields)-1 {
			c.warnf("missing URI in prefix declaration for '%s' (in '%s')", name, val)
			break
		}
		uri := c.quoteURI("prefix", fields[i+1])

		prefix, ok := strings.CutSuffix(name, ":")
		switch {
		case !ok:
			c.warnf("invalid prefix declaration '%s' (in '%s')", name, val)
		case prefix == "":
			b.setDefaultPrefix(uri)
		case prefix == "_":
			c.warnf("the '_' CURIE prefix is reserved for blank nodes and cannot be changed (in '%s')", val)
		case !vocab.IsNCName(prefix):
			c.warnf("invalid prefix declaration (must be an NCName) '%s' (in '%s')", prefix, val)
		default:
			prefix = strings.ToLower(prefix)
			if fromXMLNS[prefix] {
				c.infof("@prefix overrides the xmlns:%s declaration of the same element", prefix)
			}
			b.setPrefix(prefix, uri)
		}
	}
}

// resetLists starts a new list scope for the element and its descendants
func (c *ExecutionContext) resetLists() {
	c.lists = newListMapping()
}

func (c *ExecutionContext) infof(format string, args ...any) {
	c.w.diagnose(SeverityInfo, c.node, format, args...)
}

func (c *ExecutionContext) warnf(format string, args ...any) {
	c.w.diagnose(SeverityWarning, c.node, format, args...)
}

func (c *ExecutionContext) errorf(format string, args ...any) {
	c.w.diagnose(SeverityError, c.node, format, args...)
}

// listMapping accumulates the members of the lists of one list scope, by
// predicate, in the order the predicates were first seen
type listMapping struct {
	order []string
	preds map[string]*rdf.NamedNode
	items map[string][]rdf.Term
}

func newListMapping() *listMapping {
	return &listMapping{
		preds: make(map[string]*rdf.NamedNode),
		items: make(map[string][]rdf.Term),
	}
}

// ensure creates an empty list for p if there is none
func (l *listMapping) ensure(p *rdf.NamedNode) {
	if _, ok := l.preds[p.IRI]; ok {
		return
	}
	l.order = append(l.order, p.IRI)
	l.preds[p.IRI] = p
}

func (l *listMapping) add(p *rdf.NamedNode, item rdf.Term) {
	l.ensure(p)
	l.items[p.IRI] = append(l.items[p.IRI], item)
}

func (l *listMapping) empty() bool {
	return len(l.order) == 0
}
