// Package rdfa extracts RDF triples from markup annotated with RDFa
// attributes.
//
// A Processor walks an already parsed document tree (golang.org/x/net/html
// nodes, as produced by the markup parser of this module), resolving CURIEs,
// terms and default vocabularies per element and emitting triples as it
// goes. Problems in the document are reported as Diagnostic values next to
// the triples; only a vocabulary reference of the document element that
// cannot be resolved stops processing.
package rdfa

import (
	"context"
	"io"
	"log/slog"

	"github.com/aleksaelezovic/rdfa/internal/markup"
	"github.com/aleksaelezovic/rdfa/pkg/rdf"
	"github.com/aleksaelezovic/rdfa/pkg/vocab"
	"go.trai.ch/zerr"
	"golang.org/x/net/html"
)

var (
	// ErrFatalVocabulary is returned when a vocabulary referenced by the
	// document element cannot be resolved
	ErrFatalVocabulary = zerr.New("vocabulary of the document could not be resolved")

	// ErrNoDocumentElement is returned for a tree without an element
	ErrNoDocumentElement = zerr.New("document has no element")
)

// VocabularyResolver resolves @profile references. *vocab.Cache implements it.
type VocabularyResolver interface {
	Resolve(ctx context.Context, uri string) (*vocab.Vocabulary, []vocab.Note, error)
}

// PostProcessor expands the triples of a document once the walk is done,
// for instance with RDFS entailments. It returns the complete new set.
type PostProcessor interface {
	Expand(triples []*rdf.Triple) []*rdf.Triple
}

// PostProcessorFunc adapts a function to PostProcessor
type PostProcessorFunc func(triples []*rdf.Triple) []*rdf.Triple

func (f PostProcessorFunc) Expand(triples []*rdf.Triple) []*rdf.Triple { return f(triples) }

// Sink receives the triples of a document as they are produced
type Sink interface {
	Add(t *rdf.Triple)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(t *rdf.Triple)

func (f SinkFunc) Add(t *rdf.Triple) { f(t) }

// Options configure a Processor. The zero value processes RDFa 1.1 (or the
// version the document asks for) with the host language taken from the
// document element.
type Options struct {
	Version      Version
	HostLanguage HostLanguage

	// SpacePreserve keeps the white space of text content literals as is
	SpacePreserve bool
	// EmbeddedTurtle reads <script type="text/turtle"> in HTML and SVG
	EmbeddedTurtle bool
	// MetaName turns the @name of HTML <meta> elements into @property
	MetaName bool
	// Lite drops the attributes that are not part of RDFa Lite
	Lite bool

	// Vocabularies resolves @profile; without one @profile is ignored
	Vocabularies   VocabularyResolver
	PostProcessors []PostProcessor
	Logger         *slog.Logger
}

// Result is the outcome of processing a document
type Result struct {
	Triples     []*rdf.Triple
	Diagnostics []Diagnostic
}

// Processor extracts triples from documents. It keeps no state between
// documents and may be used concurrently.
type Processor struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Processor
func New(opts Options) *Processor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{opts: opts, logger: logger}
}

// Process extracts the triples of the document rooted at root. base is the
// URI of the document. Duplicate triples are removed. When the error wraps
// ErrFatalVocabulary the result still holds what was produced before
// processing stopped.
func (p *Processor) Process(ctx context.Context, root *html.Node, base string) (*Result, error) {
	var triples []*rdf.Triple
	seen := make(map[string]bool)
	diags, err := p.ProcessTo(ctx, root, base, SinkFunc(func(t *rdf.Triple) {
		key := t.String()
		if seen[key] {
			return
		}
		seen[key] = true
		triples = append(triples, t)
	}))
	return &Result{Triples: triples, Diagnostics: diags}, err
}

// ProcessTo streams the triples of the document to sink and returns the
// diagnostics. With post processors configured the triples are collected
// and handed to sink after the walk.
func (p *Processor) ProcessTo(ctx context.Context, root *html.Node, base string, sink Sink) ([]Diagnostic, error) {
	root = markup.DocumentElement(root)
	if root == nil {
		return nil, ErrNoDocumentElement
	}

	w := &walker{
		ctx:      ctx,
		opts:     p.opts,
		logger:   p.logger,
		version:  p.opts.Version,
		host:     p.opts.HostLanguage,
		resolver: p.opts.Vocabularies,
		bnodes:   NewBlankNodes(""),
	}
	if w.host == HostAuto {
		w.host = detectHostLanguage(root)
	}
	if w.version == VersionAuto {
		v, _ := markup.Attr(root, "version")
		w.version = detectVersion(v)
	}
	w.base = w.documentBase(root, base)

	var collected []*rdf.Triple
	if len(p.opts.PostProcessors) == 0 {
		w.emit = sink.Add
	} else {
		w.emit = func(t *rdf.Triple) { collected = append(collected, t) }
	}

	w.prepare(root)
	p.logger.Debug("processing document",
		"base", w.base,
		"host_language", w.host.String(),
		"version", w.version.String(),
	)
	err := w.walk(root, rdf.NewNamedNode(w.base), nil, nil)

	if len(p.opts.PostProcessors) > 0 {
		for _, pp := range p.opts.PostProcessors {
			collected = pp.Expand(collected)
		}
		for _, t := range collected {
			sink.Add(t)
		}
	}
	if err != nil {
		return w.diags, zerr.With(err, "base", w.base)
	}
	return w.diags, nil
}

// ProcessReader parses a document of the given media type and processes it.
// Without an explicit host language in the options, it follows from the
// media type.
func (p *Processor) ProcessReader(ctx context.Context, r io.Reader, base, mediaType string) (*Result, error) {
	root, err := markup.Parse(r, mediaType)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to parse document")
	}
	return p.forMediaType(mediaType).Process(ctx, root, base)
}

// ParseMarkup returns the triples of an RDFa document. It lets a
// vocab.Cache read vocabulary documents served as HTML or XML.
func (p *Processor) ParseMarkup(ctx context.Context, r io.Reader, base, mediaType string) ([]*rdf.Triple, error) {
	result, err := p.ProcessReader(ctx, r, base, mediaType)
	if err != nil {
		return nil, err
	}
	return result.Triples, nil
}

func (p *Processor) forMediaType(mediaType string) *Processor {
	if p.opts.HostLanguage != HostAuto {
		return p
	}
	host := HostLanguageForMediaType(mediaType)
	if host == HostAuto {
		return p
	}
	opts := p.opts
	opts.HostLanguage = host
	return &Processor{opts: opts, logger: p.logger}
}
