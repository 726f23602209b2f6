package rdfa

import (
	"mime"
	"path"
	"strings"

	"github.com/aleksaelezovic/rdfa/internal/markup"
	"go.trai.ch/zerr"
	"golang.org/x/net/html"
)

// HostLanguage is the markup language carrying the RDFa attributes. It
// controls the initial context, base and language handling, and the
// document transforms applied before processing.
type HostLanguage int

const (
	// HostAuto derives the host language from the document element
	HostAuto HostLanguage = iota
	RDFaCore
	XHTML
	HTML5
	SVG
	Atom
	SMIL
)

var hostNames = map[HostLanguage]string{
	HostAuto: "auto",
	RDFaCore: "RDFa Core",
	XHTML:    "XHTML+RDFa",
	HTML5:    "HTML5+RDFa",
	SVG:      "SVG+RDFa",
	Atom:     "Atom+RDFa",
	SMIL:     "SMIL+RDFa",
}

func (h HostLanguage) String() string {
	if name, ok := hostNames[h]; ok {
		return name
	}
	return "unknown"
}

var mediaTypeHosts = map[string]HostLanguage{
	"text/html":             HTML5,
	"application/xhtml+xml": XHTML,
	"application/xml":       RDFaCore,
	"text/xml":              RDFaCore,
	"image/svg+xml":         SVG,
	"application/svg+xml":   SVG,
	"application/atom+xml":  Atom,
	"application/smil+xml":  SMIL,
}

var suffixHosts = map[string]HostLanguage{
	".html":  HTML5,
	".htm":   HTML5,
	".xhtml": XHTML,
	".svg":   SVG,
	".xml":   RDFaCore,
	".atom":  Atom,
	".smil":  SMIL,
}

// ErrUnknownHostLanguage is returned by ParseHostLanguage
var ErrUnknownHostLanguage = zerr.New("unknown host language")

// ParseHostLanguage parses a host language name as used in configuration
// files and on the command line: "", "auto", "core", "xhtml", "html5", "svg",
// "atom" or "smil".
func ParseHostLanguage(name string) (HostLanguage, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return HostAuto, nil
	case "core", "xml":
		return RDFaCore, nil
	case "xhtml":
		return XHTML, nil
	case "html5", "html":
		return HTML5, nil
	case "svg":
		return SVG, nil
	case "atom":
		return Atom, nil
	case "smil":
		return SMIL, nil
	}
	return HostAuto, zerr.With(zerr.Wrap(ErrUnknownHostLanguage, "invalid host language"), "host_language", name)
}

// HostLanguageForMediaType maps a media type to its host language. Unknown
// XML based types map to RDFaCore, anything else to HostAuto.
func HostLanguageForMediaType(mediaType string) HostLanguage {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(mediaType))
	}
	if h, ok := mediaTypeHosts[mt]; ok {
		return h
	}
	if strings.HasSuffix(mt, "+xml") {
		return RDFaCore
	}
	return HostAuto
}

// HostLanguageForSuffix maps the file suffix of a path or URI to a host
// language, or HostAuto.
func HostLanguageForSuffix(name string) HostLanguage {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return suffixHosts[strings.ToLower(path.Ext(name))]
}

// detectHostLanguage guesses the host language from the document element
func detectHostLanguage(root *html.Node) HostLanguage {
	switch markup.LocalName(root) {
	case "html":
		if ns, _ := markup.Attr(root, "xmlns"); ns == "http://www.w3.org/1999/xhtml" {
			return XHTML
		}
		return HTML5
	case "svg":
		return SVG
	case "feed", "entry":
		return Atom
	case "smil":
		return SMIL
	}
	return RDFaCore
}

func (h HostLanguage) isHTML() bool {
	return h == XHTML || h == HTML5
}

// acceptsXMLBase reports whether @xml:base changes the base
func (h HostLanguage) acceptsXMLBase() bool {
	switch h {
	case RDFaCore, SVG, Atom, SMIL:
		return true
	}
	return false
}

// acceptsEmbeddedRDF reports whether rdf:RDF islands are read as RDF/XML
func (h HostLanguage) acceptsEmbeddedRDF() bool {
	return h == SVG || h == RDFaCore
}
