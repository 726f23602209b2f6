package vocab

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aleksaelezovic/rdfa/pkg/rdf"
	"github.com/aleksaelezovic/rdfa/pkg/store"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// RetryTTL is how long a stale cache entry is trusted again after a failed refresh
const RetryTTL = time.Hour

// MarkupParser extracts triples from an RDFa carrying document. Vocabulary
// documents served as HTML or XML are handed to it; ctx carries the chain of
// vocabularies being resolved and must be passed on to any Resolve call the
// parser makes.
type MarkupParser interface {
	ParseMarkup(ctx context.Context, r io.Reader, base, mediaType string) ([]*rdf.Triple, error)
}

type chainKey struct{}

// resolutionChain returns the vocabulary URIs whose documents are being
// parsed by the caller, outermost first
func resolutionChain(ctx context.Context) []string {
	chain, _ := ctx.Value(chainKey{}).([]string)
	return chain
}

func withResolution(ctx context.Context, uri string) context.Context {
	chain := resolutionChain(ctx)
	next := make([]string, len(chain), len(chain)+1)
	copy(next, chain)
	return context.WithValue(ctx, chainKey{}, append(next, uri))
}

type resolved struct {
	vocab *Vocabulary
	notes []Note
	err   error
}

// Cache resolves vocabulary documents. Results, including failures, are kept
// in memory for the lifetime of the Cache; successful results are also
// written to the persistent storage, if one is configured, and reused until
// they expire. Concurrent requests for the same source share one fetch.
type Cache struct {
	fetcher    Fetcher
	storage    store.Storage
	markup     MarkupParser
	logger     *slog.Logger
	defaultTTL time.Duration
	retryTTL   time.Duration
	now        func() time.Time

	mu       sync.Mutex
	memory   map[string]*resolved
	inflight map[string]int
	group    singleflight.Group
}

// Option configures a Cache
type Option func(*Cache)

// WithFetcher sets the document fetcher
func WithFetcher(f Fetcher) Option {
	return func(c *Cache) { c.fetcher = f }
}

// WithStorage enables persistent caching in s
func WithStorage(s store.Storage) Option {
	return func(c *Cache) { c.storage = s }
}

// WithMarkupParser sets the parser for HTML and XML vocabulary documents
func WithMarkupParser(p MarkupParser) Option {
	return func(c *Cache) { c.markup = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithTTL sets the freshness of documents whose fetcher reported no expiry,
// and how long a stale entry is used after a failed refresh
func WithTTL(defaultTTL, retryTTL time.Duration) Option {
	return func(c *Cache) {
		if defaultTTL > 0 {
			c.defaultTTL = defaultTTL
		}
		if retryTTL > 0 {
			c.retryTTL = retryTTL
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache. Without options it fetches over HTTP and keeps
// results in memory only.
func New(opts ...Option) *Cache {
	c := &Cache{
		defaultTTL: DefaultTTL,
		retryTTL:   RetryTTL,
		now:        time.Now,
		memory:     make(map[string]*resolved),
		inflight:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = NewHTTPFetcher(0)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// UseMarkupParser sets the parser for HTML and XML vocabulary documents
// after construction, for parsers that themselves depend on the Cache
func (c *Cache) UseMarkupParser(p MarkupParser) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markup = p
}

// Resolve returns the vocabulary defined by the document at uri, along with
// the notes produced while retrieving it. Notes are returned only to the
// call that performed the retrieval; callers sharing its result get none.
//
// A call made while parsing another vocabulary document (ctx carries the
// chain) never waits: if uri is already being resolved it fails with
// ErrInFlight. Top-level calls wait for a concurrent resolution of the same
// uri and share its result. The shared retrieval is not cancelled with ctx,
// and a cancelled caller's context error is never cached.
func (c *Cache) Resolve(ctx context.Context, uri string) (*Vocabulary, []Note, error) {
	if IsExcluded(uri) {
		return NewVocabulary(), nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	chain := resolutionChain(ctx)

	c.mu.Lock()
	if r, ok := c.memory[uri]; ok {
		c.mu.Unlock()
		c.logger.Debug("vocabulary served from memory", "uri", uri)
		return r.vocab, nil, r.err
	}
	if len(chain) > 0 && (slices.Contains(chain, uri) || c.inflight[uri] > 0) {
		c.mu.Unlock()
		return nil, nil, zerr.With(zerr.Wrap(ErrInFlight, "nested vocabulary resolution skipped"), "uri", uri)
	}
	c.inflight[uri]++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.inflight[uri]--; c.inflight[uri] <= 0 {
			delete(c.inflight, uri)
		}
		c.mu.Unlock()
	}()

	leader := false
	ch := c.group.DoChan(uri, func() (any, error) {
		leader = true
		c.mu.Lock()
		r, ok := c.memory[uri]
		c.mu.Unlock()
		if ok {
			return &resolved{vocab: r.vocab, err: r.err}, nil
		}

		vocab, notes, err := c.load(context.WithoutCancel(ctx), uri, false)
		if !isContextError(err) {
			c.mu.Lock()
			c.memory[uri] = &resolved{vocab: vocab, err: err}
			c.mu.Unlock()
		}
		return &resolved{vocab: vocab, notes: notes, err: err}, nil
	})

	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case res := <-ch:
		r := res.Val.(*resolved)
		if !leader {
			return r.vocab, nil, r.err
		}
		return r.vocab, r.notes, r.err
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Warm fetches every uri and stores it in the persistent cache, regardless of
// any unexpired entry
func (c *Cache) Warm(ctx context.Context, uris ...string) ([]Note, error) {
	var notes []Note
	var errs []error
	for _, uri := range uris {
		vocab, n, err := c.load(ctx, uri, true)
		notes = append(notes, n...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c.mu.Lock()
		c.memory[uri] = &resolved{vocab: vocab}
		c.mu.Unlock()
	}
	return notes, errors.Join(errs...)
}

// Entries lists the persistent cache index ordered by source URI
func (c *Cache) Entries() ([]Entry, error) {
	if c.storage == nil {
		return nil, nil
	}
	txn, err := c.storage.Begin(false)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open cache index")
	}
	defer txn.Rollback()

	it, err := txn.Scan(store.TableIndex, nil, nil)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to scan cache index")
	}
	defer it.Close()

	var entries []Entry
	for it.Next() {
		var entry Entry
		if err := store.GetRecord(txn, store.TableIndex, it.Key(), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Lookup returns the persisted vocabulary of uri without any network access
func (c *Cache) Lookup(uri string) (*Entry, *Vocabulary, error) {
	if c.storage == nil {
		return nil, nil, store.ErrNotFound
	}
	return c.read(uri)
}

// load consults the persistent cache and fetches the document when there is
// no fresh entry (or always, with force)
func (c *Cache) load(ctx context.Context, uri string, force bool) (*Vocabulary, []Note, error) {
	var notes []Note
	info := func(msg string, err error) {
		notes = append(notes, Note{Level: LevelInfo, Message: msg + ": " + err.Error(), Source: uri})
	}

	var entry *Entry
	var cached *Vocabulary
	if c.storage != nil {
		var err error
		entry, cached, err = c.read(uri)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			info("vocabulary cache unreadable", err)
		}
	}

	now := c.now()
	if cached != nil && !force && !entry.Expired(now) {
		c.logger.Debug("vocabulary served from persistent cache", "uri", uri, "expires", entry.ExpiresAt)
		return cached, notes, nil
	}

	c.logger.Debug("fetching vocabulary", "uri", uri)
	vocab, expires, lastModified, fetchNotes, err := c.retrieve(ctx, uri)
	notes = append(notes, fetchNotes...)

	if err != nil {
		if cached == nil {
			c.logger.Warn("vocabulary unavailable", "uri", uri, "error", err)
			return nil, notes, err
		}
		c.logger.Warn("vocabulary refresh failed, using outdated cache", "uri", uri, "error", err)
		notes = append(notes, Note{
			Level:   LevelWarning,
			Message: "could not refresh the cached vocabulary, using the outdated copy: " + err.Error(),
			Source:  uri,
		})
		entry.CreatedAt = now
		entry.ExpiresAt = now.Add(c.retryTTL)
		if c.storage != nil {
			if werr := c.write(entry, nil); werr != nil {
				info("vocabulary cache not updated", werr)
			}
		}
		return cached, notes, nil
	}

	if c.storage != nil {
		fresh := &Entry{
			SourceURI:    uri,
			Artifact:     ArtifactName(uri),
			CreatedAt:    now,
			ExpiresAt:    expires,
			LastModified: lastModified,
		}
		if werr := c.write(fresh, vocab); werr != nil {
			info("vocabulary cache not updated", werr)
		}
	}
	return vocab, notes, nil
}

// retrieve fetches, parses and extracts one vocabulary document
func (c *Cache) retrieve(ctx context.Context, uri string) (*Vocabulary, time.Time, time.Time, []Note, error) {
	resp, err := c.fetcher.Fetch(ctx, uri, AcceptHeader)
	if err != nil {
		return nil, time.Time{}, time.Time{}, nil, classify(ErrFetch, err, uri)
	}

	triples, err := c.parse(ctx, uri, resp)
	if err != nil {
		return nil, time.Time{}, time.Time{}, nil, err
	}

	expires := resp.ExpiresAt
	if expires.IsZero() {
		expires = c.now().Add(c.defaultTTL)
	}

	vocab, notes := Extract(triples, uri)
	return vocab, expires, resp.LastModified, notes, nil
}

func (c *Cache) parse(ctx context.Context, uri string, resp *Response) ([]*rdf.Triple, error) {
	mediaType := rdf.MediaType(resp.ContentType)
	if mediaType == "" {
		mediaType = MediaTypeForSuffix(uri)
	}

	if IsMarkupMediaType(mediaType) {
		c.mu.Lock()
		markup := c.markup
		c.mu.Unlock()
		if markup == nil {
			return nil, classify(ErrUnsupportedMediaType, errors.New("no markup parser configured for "+mediaType), uri)
		}
		triples, err := markup.ParseMarkup(withResolution(ctx, uri), bytes.NewReader(resp.Body), uri, mediaType)
		if err != nil {
			return nil, classify(ErrParse, err, uri)
		}
		return triples, nil
	}

	parser, err := rdf.NewParser(mediaType)
	if err != nil {
		return nil, classify(ErrUnsupportedMediaType, err, uri)
	}
	triples, err := parser.Parse(bytes.NewReader(resp.Body), uri)
	if err != nil {
		return nil, classify(ErrParse, err, uri)
	}
	return triples, nil
}

// read returns the index entry of uri and its artifact
func (c *Cache) read(uri string) (*Entry, *Vocabulary, error) {
	txn, err := c.storage.Begin(false)
	if err != nil {
		return nil, nil, err
	}
	defer txn.Rollback()

	var entry Entry
	if err := store.GetRecord(txn, store.TableIndex, []byte(uri), &entry); err != nil {
		return nil, nil, err
	}
	vocab := NewVocabulary()
	if err := store.GetRecord(txn, store.TableArtifact, []byte(entry.Artifact), vocab); err != nil {
		return nil, nil, err
	}
	return &entry, vocab, nil
}

// write stores entry in the index and, when vocab is not nil, its artifact
func (c *Cache) write(entry *Entry, vocab *Vocabulary) error {
	txn, err := c.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback()

	if vocab != nil {
		if err := store.PutRecord(txn, store.TableArtifact, []byte(entry.Artifact), vocab); err != nil {
			return err
		}
	}
	if err := store.PutRecord(txn, store.TableIndex, []byte(entry.SourceURI), entry); err != nil {
		return err
	}
	return txn.Commit()
}
