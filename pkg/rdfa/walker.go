package rdfa

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aleksaelezovic/rdfa/internal/markup"
	"github.com/aleksaelezovic/rdfa/pkg/rdf"
	"github.com/aleksaelezovic/rdfa/pkg/vocab"
	"golang.org/x/net/html"
)

// walker holds the state of processing one document
type walker struct {
	ctx      context.Context
	opts     Options
	logger   *slog.Logger
	version  Version
	host     HostLanguage
	base     string
	resolver VocabularyResolver
	bnodes   *BlankNodes
	emit     func(*rdf.Triple)
	diags    []Diagnostic
}

// completion says which slot of an incomplete triple the completing
// subject fills
type completion int

const (
	// completeObject yields (subject, predicate, completing subject)
	completeObject completion = iota
	// completeSubject yields (completing subject, predicate, subject)
	completeSubject
	// completeList appends the completing subject to a list
	completeList
)

// incomplete is a statement waiting for a descendant to supply a resource
type incomplete struct {
	kind      completion
	subject   rdf.Term
	predicate *rdf.NamedNode
	lists     *listMapping
}

func (w *walker) complete(t incomplete, resource rdf.Term) {
	switch t.kind {
	case completeObject:
		w.add(t.subject, t.predicate, resource)
	case completeSubject:
		w.add(resource, t.predicate, t.subject)
	case completeList:
		t.lists.add(t.predicate, resource)
	}
}

// walk processes node and its descendants. parentObject is the resource
// children without a subject of their own talk about; pending are the
// incomplete triples of the nearest ancestor with @rel or @rev. Only a
// fatal vocabulary failure is returned as an error.
func (w *walker) walk(node *html.Node, parentObject rdf.Term, parent *ExecutionContext, pending []incomplete) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	w.transformElement(node)

	c, err := w.newContext(node, parent)
	if err != nil {
		return err
	}
	if w.embedded(c) {
		return nil
	}

	if !markup.HasAttr(node, relevantAttrs...) {
		if parent != nil {
			c.settingSubject = parent.settingSubject
		}
		for _, child := range markup.Elements(node) {
			if err := w.walk(child, parentObject, c, pending); err != nil {
				return err
			}
		}
		return nil
	}

	subject, object := w.subjectAndObject(c)
	newSubject := subject != nil
	if subject == nil {
		subject = parentObject
	}
	if !newSubject && parent != nil && parent.settingSubject {
		newSubject = true
	}
	if newSubject {
		c.resetLists()
	}
	if !markup.HasAttr(node, "rel", "rev") {
		object = subject
	}

	for _, t := range c.resources("typeof") {
		w.add(subject, rdf.RDFType, t)
	}

	inlist := c.Version.lists() && markup.HasAttr(node, "inlist")
	var incompletes []incomplete
	for _, pred := range c.predicates("rel") {
		switch {
		case inlist && object != nil:
			c.lists.add(pred, object)
		case inlist:
			c.lists.ensure(pred)
			incompletes = append(incompletes, incomplete{kind: completeList, predicate: pred, lists: c.lists})
		case object != nil:
			w.add(subject, pred, object)
		default:
			incompletes = append(incompletes, incomplete{kind: completeObject, subject: subject, predicate: pred})
		}
	}
	for _, pred := range c.predicates("rev") {
		if object != nil {
			w.add(object, pred, subject)
		} else {
			incompletes = append(incompletes, incomplete{kind: completeSubject, subject: subject, predicate: pred})
		}
	}

	stop := false
	if props := c.predicates("property"); len(props) > 0 {
		lit, xmlLiteral := c.literal()
		stop = xmlLiteral
		for _, pred := range props {
			if inlist {
				c.lists.add(pred, lit)
			} else {
				w.add(subject, pred, lit)
			}
		}
	}

	if !stop {
		objectToChildren := object
		if objectToChildren == nil {
			objectToChildren = w.bnodes.Fresh()
		}
		for _, child := range markup.Elements(node) {
			if err := w.walk(child, objectToChildren, c, incompletes); err != nil {
				return err
			}
		}
	}

	for _, t := range pending {
		w.complete(t, subject)
	}

	if c.Version.lists() && newSubject {
		w.materializeLists(subject, c.lists)
	}
	return nil
}

// subjectAndObject establishes the new subject and the object resource of
// the context element. Either may be nil.
func (w *walker) subjectAndObject(c *ExecutionContext) (subject, object rdf.Term) {
	has := func(attr string) bool { return markup.HasAttr(c.node, attr) }
	srcIsSubject := c.Version.srcIsSubject()

	if has("rel") || has("rev") {
		switch {
		case has("about"):
			subject = c.resource("about")
		case srcIsSubject && has("src"):
			subject = c.resource("src")
		case has("typeof"):
			subject = w.bnodes.Fresh()
		}

		switch {
		case has("resource"):
			object = c.resource("resource")
		case has("href"):
			object = c.resource("href")
		case !srcIsSubject && has("src"):
			object = c.resource("src")
		}
		c.settingSubject = object != nil
		return subject, object
	}

	switch {
	case has("about"):
		subject = c.resource("about")
	case srcIsSubject && has("src"):
		subject = c.resource("src")
	case has("resource"):
		subject = c.resource("resource")
	case has("href"):
		subject = c.resource("href")
	case has("src"):
		subject = c.resource("src")
	case has("typeof"):
		subject = w.bnodes.Fresh()
	}
	return subject, nil
}

// predicates resolves a predicate attribute, dropping blank nodes
func (c *ExecutionContext) predicates(attr string) []*rdf.NamedNode {
	var out []*rdf.NamedNode
	for _, t := range c.resources(attr) {
		nn, ok := t.(*rdf.NamedNode)
		if !ok {
			c.warnf("blank node in %s position is not allowed", attr)
			continue
		}
		out = append(out, nn)
	}
	return out
}

// materializeLists writes out every list of a scope as an rdf:first /
// rdf:rest chain hanging off subject. An empty list is rdf:nil.
func (w *walker) materializeLists(subject rdf.Term, lists *listMapping) {
	for _, key := range lists.order {
		pred := lists.preds[key]
		items := lists.items[key]
		if len(items) == 0 {
			w.add(subject, pred, rdf.RDFNil)
			continue
		}
		heads := make([]*rdf.BlankNode, len(items))
		for i := range items {
			heads[i] = w.bnodes.Fresh()
		}
		for i, item := range items {
			w.add(heads[i], rdf.RDFFirst, item)
			var rest rdf.Term = rdf.RDFNil
			if i+1 < len(heads) {
				rest = heads[i+1]
			}
			w.add(heads[i], rdf.RDFRest, rest)
		}
		w.add(subject, pred, heads[0])
	}
}

func (w *walker) add(s, p, o rdf.Term) {
	w.emit(rdf.NewTriple(s, p, o))
}

func (w *walker) addAll(triples []*rdf.Triple) {
	for _, t := range triples {
		w.emit(t)
	}
}

func (w *walker) diagnose(severity Severity, node *html.Node, format string, args ...any) {
	d := Diagnostic{
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
		Context:  w.base,
	}
	if node != nil {
		d.Node = node.Data
	}
	w.report(d)
}

// note turns a message of the vocabulary cache into a diagnostic
func (w *walker) note(n vocab.Note, node *html.Node) {
	severity := SeverityInfo
	switch n.Level {
	case vocab.LevelWarning:
		severity = SeverityWarning
	case vocab.LevelError:
		severity = SeverityError
	}
	d := Diagnostic{Severity: severity, Message: n.Message, Context: n.Source}
	if node != nil {
		d.Node = node.Data
	}
	w.report(d)
}

func (w *walker) report(d Diagnostic) {
	w.diags = append(w.diags, d)
	w.logger.Debug("rdfa diagnostic",
		"severity", d.Severity.String(),
		"message", d.Message,
		"element", d.Node,
		"context", d.Context,
	)
}
