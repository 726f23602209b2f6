package rdfa

import (
	"regexp"
	"strings"
	"time"

	"github.com/aleksaelezovic/rdfa/internal/markup"
	"github.com/aleksaelezovic/rdfa/pkg/rdf"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// nonLiteAttrs are the attributes RDFa Lite does without
var nonLiteAttrs = []string{"resource", "inlist", "datatype", "rev", "rel"}

// prepare applies the document level transforms before the walk
func (w *walker) prepare(root *html.Node) {
	if w.opts.Lite {
		w.prune(root)
	}
	if w.opts.MetaName && w.host.isHTML() {
		for _, meta := range markup.ElementsByName(root, "meta") {
			if name, ok := markup.Attr(meta, "name"); ok && !markup.HasAttr(meta, "property") {
				markup.SetAttr(meta, "property", name)
			}
		}
	}
	w.topAbout(root)
}

// topAbout makes the document the subject of the top level statements
func (w *walker) topAbout(root *html.Node) {
	if !markup.HasAttr(root, "about") {
		markup.SetAttr(root, "about", "")
	}
	if w.version != Version10 || !w.host.isHTML() {
		return
	}
	for _, name := range []string{"head", "body"} {
		for _, n := range markup.ElementsByName(root, name) {
			if markup.HasAttr(n, "href", "resource", "about", "src") {
				continue
			}
			markup.SetAttr(n, "about", "")
		}
	}
}

// prune removes the attributes that are not part of RDFa Lite
func (w *walker) prune(n *html.Node) {
	if n.Type == html.ElementNode {
		if markup.LocalName(n) != "meta" && markup.HasAttr(n, "content") {
			w.diagnose(SeverityWarning, n, "attribute content is not used in RDFa Lite, ignored")
			markup.RemoveAttr(n, "content")
		}
		for _, attr := range nonLiteAttrs {
			if markup.HasAttr(n, attr) {
				w.diagnose(SeverityWarning, n, "attribute %s is not used in RDFa Lite, ignored", attr)
				markup.RemoveAttr(n, attr)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.prune(c)
	}
}

// transformElement applies the host language rewrites of a single element
func (w *walker) transformElement(n *html.Node) {
	for _, attr := range []string{"about", "resource"} {
		if v, ok := markup.Attr(n, attr); ok && strings.TrimSpace(v) == "[]" {
			w.diagnose(SeverityWarning, n, "empty safe CURIE in @%s; attribute ignored", attr)
			markup.RemoveAttr(n, attr)
		}
	}

	switch w.host {
	case HTML5:
		html5Transform(n)
	case Atom:
		if markup.LocalName(n) == "entry" && !markup.HasAttr(n, "typeof") {
			markup.SetAttr(n, "typeof", "")
		}
	}
}

func html5Transform(n *html.Node) {
	switch {
	case n.DataAtom == atom.Data && !markup.HasAttr(n, "content"):
		value, _ := markup.Attr(n, "value")
		markup.SetAttr(n, "content", value)
	case n.DataAtom == atom.Time && !markup.HasAttr(n, "content"):
		value, ok := markup.Attr(n, "datetime")
		if !ok {
			value = strings.TrimSpace(markup.Text(n))
		}
		if !markup.HasAttr(n, "datatype") {
			if dt := temporalDatatype(value); dt != "" {
				markup.SetAttr(n, "datatype", dt)
			}
		}
		markup.SetAttr(n, "content", value)
	case markup.HasAttr(n, "data") && !markup.HasAttr(n, "src"):
		data, _ := markup.Attr(n, "data")
		markup.SetAttr(n, "src", data)
	}
}

var temporalLayouts = []struct {
	datatype string
	layouts  []string
}{
	{"dateTime", []string{"2006-01-02T15:04:05Z07:00", "2006-01-02T15:04Z07:00", "2006-01-02T15:04:05", "2006-01-02T15:04"}},
	{"date", []string{"2006-01-02"}},
	{"time", []string{"15:04:05", "15:04"}},
	{"gYearMonth", []string{"2006-01"}},
	{"gYear", []string{"2006"}},
	{"gMonthDay", []string{"01-02"}},
}

var durationPattern = regexp.MustCompile(`^-?P(\d+Y)?(\d+M)?(\d+D)?(T(\d+H)?(\d+M)?(\d+(\.\d+)?S)?)?$`)

// temporalDatatype guesses the XML Schema datatype of an HTML5 <time>
// value. It returns "" when the value has none of the known forms.
func temporalDatatype(value string) string {
	for _, t := range temporalLayouts {
		for _, layout := range t.layouts {
			if _, err := time.Parse(layout, value); err == nil {
				return rdf.XSDNamespace + t.datatype
			}
		}
	}
	if strings.ContainsAny(value, "0123456789") && !strings.HasSuffix(value, "T") && durationPattern.MatchString(value) {
		return rdf.XSDNamespace + "duration"
	}
	return ""
}

// documentBase returns the href of the first <base> element of an HTML
// document, or base
func (w *walker) documentBase(root *html.Node, base string) string {
	if !w.host.isHTML() {
		return base
	}
	for _, n := range markup.ElementsByName(root, "base") {
		if href, ok := markup.Attr(n, "href"); ok {
			return rdf.ResolveIRI(base, strings.TrimSpace(href))
		}
	}
	return base
}
