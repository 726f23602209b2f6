// Package app implements the application layer of the rdfa command: it
// wires the configuration, the vocabulary cache and the processor together.
package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/aleksaelezovic/rdfa/internal/config"
	"github.com/aleksaelezovic/rdfa/internal/storage"
	"github.com/aleksaelezovic/rdfa/pkg/rdf"
	"github.com/aleksaelezovic/rdfa/pkg/rdfa"
	"github.com/aleksaelezovic/rdfa/pkg/store"
	"github.com/aleksaelezovic/rdfa/pkg/vocab"
	"go.trai.ch/zerr"
)

// DocumentAccept is the Accept header used to retrieve documents to extract
const DocumentAccept = "text/html;q=1.0, application/xhtml+xml;q=0.9, image/svg+xml;q=0.8, application/xml;q=0.5, */*;q=0.1"

var (
	// ErrNoInput is returned when "-" is given without a standard input
	ErrNoInput = zerr.New("no standard input available")

	// ErrCacheDisabled is returned when warming a cache with backend "none"
	ErrCacheDisabled = zerr.New("vocabulary cache is disabled")
)

// App holds the long lived components of one command invocation.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	storage store.Storage
	fetcher vocab.Fetcher
	cache   *vocab.Cache
	opts    rdfa.Options
}

// New builds the application from cfg. The caller must Close it.
func New(cfg *config.Config, logger *slog.Logger, fetcher vocab.Fetcher) (*App, error) {
	version, err := rdfa.ParseVersion(cfg.RDFa.Version)
	if err != nil {
		return nil, err
	}
	host, err := rdfa.ParseHostLanguage(cfg.RDFa.HostLanguage)
	if err != nil {
		return nil, err
	}
	if fetcher == nil {
		f := vocab.NewHTTPFetcher(cfg.Fetch.Timeout)
		f.MaxBytes = cfg.Fetch.MaxBytes
		fetcher = f
	}

	backend, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	cacheOpts := []vocab.Option{
		vocab.WithFetcher(fetcher),
		vocab.WithTTL(cfg.Cache.DefaultTTL, cfg.Cache.RetryTTL),
		vocab.WithLogger(logger.With("component", "vocab")),
	}
	if backend != nil {
		cacheOpts = append(cacheOpts, vocab.WithStorage(backend))
	}
	cache := vocab.New(cacheOpts...)

	a := &App{
		cfg:     cfg,
		logger:  logger,
		storage: backend,
		fetcher: fetcher,
		cache:   cache,
		opts: rdfa.Options{
			Version:        version,
			HostLanguage:   host,
			SpacePreserve:  cfg.RDFa.SpacePreserve,
			EmbeddedTurtle: cfg.RDFa.EmbeddedTurtle,
			MetaName:       cfg.RDFa.MetaName,
			Lite:           cfg.RDFa.Lite,
			Vocabularies:   cache,
			Logger:         logger.With("component", "rdfa"),
		},
	}
	// vocabulary documents are read with the configured rules
	cache.UseMarkupParser(rdfa.New(a.opts))
	return a, nil
}

func openStorage(cfg *config.Config) (store.Storage, error) {
	if cfg.Cache.Backend == config.BackendNone {
		return nil, nil
	}
	dir, err := cfg.CacheDir()
	if err != nil {
		return nil, err
	}
	switch cfg.Cache.Backend {
	case config.BackendBadger:
		s, err := storage.NewBadgerStorage(filepath.Join(dir, "index"))
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to open vocabulary cache"), "dir", dir)
		}
		return s, nil
	default:
		s, err := storage.NewFileStorage(dir)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to open vocabulary cache"), "dir", dir)
		}
		return s, nil
	}
}

// Close releases the persistent cache
func (a *App) Close() error {
	if a.storage == nil {
		return nil
	}
	return a.storage.Close()
}

// Options returns the processor options derived from the configuration
func (a *App) Options() rdfa.Options {
	return a.opts
}

// ExtractRequest describes one document to process
type ExtractRequest struct {
	// Source is a URL, a file name or "-" for Stdin
	Source string
	Stdin  io.Reader
	// Base overrides the document URI
	Base string
	// MediaType overrides the media type reported for the document
	MediaType string
	Options   rdfa.Options
}

// Extract processes one document, writes its triples to out as N-Triples
// and logs its diagnostics. A fatal vocabulary error is returned after the
// partial output has been written.
func (a *App) Extract(ctx context.Context, req ExtractRequest, out io.Writer) (*rdfa.Result, error) {
	body, base, mediaType, err := a.load(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Base != "" {
		base = req.Base
	}
	if req.MediaType != "" {
		mediaType = req.MediaType
	}
	if mediaType == "" {
		mediaType = "text/html"
	}

	a.logger.Debug("extracting", "source", req.Source, "base", base, "media_type", mediaType)
	started := time.Now()
	result, err := rdfa.New(req.Options).ProcessReader(ctx, bytes.NewReader(body), base, mediaType)
	if result != nil {
		a.LogDiagnostics(ctx, result.Diagnostics)
		if werr := rdf.WriteNTriples(out, result.Triples); werr != nil {
			return result, zerr.Wrap(werr, "failed to write triples")
		}
		a.logger.Debug("extracted", "triples", len(result.Triples), "elapsed", time.Since(started))
	}
	if err != nil {
		return result, zerr.With(zerr.Wrap(err, "failed to extract"), "source", req.Source)
	}
	return result, nil
}

func (a *App) load(ctx context.Context, req ExtractRequest) (body []byte, base, mediaType string, err error) {
	if req.Source == "-" {
		if req.Stdin == nil {
			return nil, "", "", ErrNoInput
		}
		body, err = io.ReadAll(req.Stdin)
		if err != nil {
			return nil, "", "", zerr.Wrap(err, "failed to read standard input")
		}
		return body, "", "", nil
	}

	uri := req.Source
	if !hasScheme(uri) {
		abs, err := filepath.Abs(uri)
		if err != nil {
			return nil, "", "", zerr.Wrap(err, "failed to resolve path")
		}
		uri = "file://" + filepath.ToSlash(abs)
	}
	resp, err := a.fetcher.Fetch(ctx, uri, DocumentAccept)
	if err != nil {
		return nil, "", "", zerr.With(zerr.Wrap(err, "failed to retrieve document"), "uri", uri)
	}
	mediaType = resp.ContentType
	if mediaType == "" {
		mediaType = vocab.MediaTypeForSuffix(uri)
	}
	return resp.Body, uri, mediaType, nil
}

func hasScheme(s string) bool {
	for _, scheme := range []string{"http://", "https://", "file://"} {
		if strings.HasPrefix(strings.ToLower(s), scheme) {
			return true
		}
	}
	return false
}

// LogDiagnostics writes processor diagnostics to the logger at the level
// matching their severity
func (a *App) LogDiagnostics(ctx context.Context, diags []rdfa.Diagnostic) {
	for _, d := range diags {
		level := slog.LevelInfo
		switch d.Severity {
		case rdfa.SeverityWarning:
			level = slog.LevelWarn
		case rdfa.SeverityError:
			level = slog.LevelError
		}
		attrs := []any{"context", d.Context}
		if d.Node != "" {
			attrs = append(attrs, "element", d.Node)
		}
		if d.Fatal {
			attrs = append(attrs, "fatal", true)
		}
		a.logger.Log(ctx, level, d.Message, attrs...)
	}
}

// CacheEntries lists the persistent vocabulary cache
func (a *App) CacheEntries() ([]vocab.Entry, error) {
	return a.cache.Entries()
}

// WarmCache fetches the given vocabularies into the persistent cache
func (a *App) WarmCache(ctx context.Context, uris []string) error {
	if a.storage == nil {
		return zerr.With(zerr.Wrap(ErrCacheDisabled, "cannot warm"), "backend", a.cfg.Cache.Backend)
	}
	notes, err := a.cache.Warm(ctx, uris...)
	for _, n := range notes {
		level := slog.LevelInfo
		switch n.Level {
		case vocab.LevelWarning:
			level = slog.LevelWarn
		case vocab.LevelError:
			level = slog.LevelError
		}
		a.logger.Log(ctx, level, n.Message, "source", n.Source)
	}
	if err != nil {
		return zerr.Wrap(err, "failed to warm vocabulary cache")
	}
	return a.storage.Sync()
}
