package vocab

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aleksaelezovic/rdfa/internal/storage"
	"github.com/aleksaelezovic/rdfa/pkg/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const foafVocab = `@prefix rdfa: <http://www.w3.org/ns/rdfa#> .
[] rdfa:prefix "FOAF" ; rdfa:uri "http://xmlns.com/foaf/0.1/" .
[] rdfa:term "name" ; rdfa:uri "http://xmlns.com/foaf/0.1/name" .
[] rdfa:vocabulary <http://schema.org/> .
`

// countingFetcher serves fixed documents and counts fetches per URI
type countingFetcher struct {
	mu      sync.Mutex
	docs    map[string]*Response
	calls   map[string]int
	failing atomic.Bool
	delay   time.Duration
}

func newCountingFetcher() *countingFetcher {
	return &countingFetcher{docs: make(map[string]*Response), calls: make(map[string]int)}
}

func (f *countingFetcher) serve(uri, contentType, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[uri] = &Response{Body: []byte(body), ContentType: contentType}
}

func (f *countingFetcher) Fetch(_ context.Context, uri, accept string) (*Response, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[uri]++
	if f.failing.Load() {
		return nil, errors.New("network down")
	}
	doc, ok := f.docs[uri]
	if !ok {
		return nil, errors.New("404 not found")
	}
	return doc, nil
}

func (f *countingFetcher) count(uri string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[uri]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestResolve_ExtractsVocabulary(t *testing.T) {
	fetcher := newCountingFetcher()
	fetcher.serve("http://example.org/foaf", "text/turtle", foafVocab)
	cache := New(WithFetcher(fetcher))

	v, notes, err := cache.Resolve(context.Background(), "http://example.org/foaf")
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Equal(t, "http://xmlns.com/foaf/0.1/", v.Prefixes["foaf"])
	assert.Equal(t, "http://xmlns.com/foaf/0.1/name", v.Terms["name"])
	assert.Equal(t, "http://schema.org/", v.Vocabulary)
}

func TestResolve_FetchesOncePerProcess(t *testing.T) {
	fetcher := newCountingFetcher()
	fetcher.serve("http://example.org/foaf", "text/turtle", foafVocab)
	cache := New(WithFetcher(fetcher))

	for range 3 {
		_, _, err := cache.Resolve(context.Background(), "http://example.org/foaf")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fetcher.count("http://example.org/foaf"))
}

func TestResolve_ExcludedSourcesAreNotFetched(t *testing.T) {
	fetcher := newCountingFetcher()
	cache := New(WithFetcher(fetcher))

	v, notes, err := cache.Resolve(context.Background(), "http://www.w3.org/2005/11/profile")
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Empty(t, v.Terms)
	assert.Empty(t, v.Prefixes)
	assert.Zero(t, fetcher.count("http://www.w3.org/2005/11/profile"))
}

func TestResolve_ConcurrentCallersShareFetch(t *testing.T) {
	fetcher := newCountingFetcher()
	fetcher.delay = 20 * time.Millisecond
	fetcher.serve("http://example.org/foaf", "text/turtle", foafVocab)
	cache := New(WithFetcher(fetcher))

	var wg sync.WaitGroup
	results := make([]*Vocabulary, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := cache.Resolve(context.Background(), "http://example.org/foaf")
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fetcher.count("http://example.org/foaf"))
	for _, v := range results {
		require.NotNil(t, v)
		assert.Equal(t, "http://xmlns.com/foaf/0.1/name", v.Terms["name"])
	}
}

// gatedFetcher blocks every fetch until release is closed
type gatedFetcher struct {
	started chan struct{}
	release chan struct{}
	body    string
	calls   atomic.Int32
	once    sync.Once
}

func newGatedFetcher(body string) *gatedFetcher {
	return &gatedFetcher{started: make(chan struct{}), release: make(chan struct{}), body: body}
}

func (f *gatedFetcher) Fetch(ctx context.Context, uri, accept string) (*Response, error) {
	f.calls.Add(1)
	f.once.Do(func() { close(f.started) })
	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &Response{Body: []byte(f.body), ContentType: "text/turtle"}, nil
}

func TestResolve_CancelledCallerDoesNotFailLaterCalls(t *testing.T) {
	const uri = "http://example.org/foaf"
	fetcher := newGatedFetcher(foafVocab)
	cache := New(WithFetcher(fetcher))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := cache.Resolve(cancelled, uri)
	assert.ErrorIs(t, err, context.Canceled)

	// the caller leading the shared fetch gives up while it is running
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, _, err := cache.Resolve(ctx, uri)
		errc <- err
	}()
	<-fetcher.started
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	close(fetcher.release)

	v, _, err := cache.Resolve(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, "http://xmlns.com/foaf/0.1/name", v.Terms["name"])
	assert.Equal(t, int32(1), fetcher.calls.Load(), "the abandoned fetch completes and is reused")
}

func TestResolve_NotesGoOnlyToTheRetrievingCall(t *testing.T) {
	const uri = "http://example.org/notes"
	fetcher := newGatedFetcher(`@prefix rdfa: <http://www.w3.org/ns/rdfa#> .
<#bad> rdfa:term "1bad" ; rdfa:uri "http://example.org/bad" .
<#good> rdfa:term "good" ; rdfa:uri "http://example.org/good" .
`)
	cache := New(WithFetcher(fetcher))

	var wg sync.WaitGroup
	noted := make([]bool, 4)
	for i := range noted {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, notes, err := cache.Resolve(context.Background(), uri)
			assert.NoError(t, err)
			assert.Equal(t, "http://example.org/good", v.Terms["good"])
			noted[i] = len(notes) > 0
		}()
	}
	<-fetcher.started
	time.Sleep(20 * time.Millisecond)
	close(fetcher.release)
	wg.Wait()

	count := 0
	for _, n := range noted {
		if n {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestResolve_FailureIsRememberedAndClassified(t *testing.T) {
	fetcher := newCountingFetcher()
	cache := New(WithFetcher(fetcher))

	_, _, err := cache.Resolve(context.Background(), "http://example.org/missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)

	_, _, err = cache.Resolve(context.Background(), "http://example.org/missing")
	assert.ErrorIs(t, err, ErrFetch)
	assert.Equal(t, 1, fetcher.count("http://example.org/missing"))
}

func TestResolve_UnsupportedAndUnparsable(t *testing.T) {
	fetcher := newCountingFetcher()
	fetcher.serve("http://example.org/image", "image/png", "\x89PNG")
	fetcher.serve("http://example.org/broken", "text/turtle", "@prefix broken")
	fetcher.serve("http://example.org/page", "text/html", "<html></html>")
	cache := New(WithFetcher(fetcher))

	_, _, err := cache.Resolve(context.Background(), "http://example.org/image")
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)

	_, _, err = cache.Resolve(context.Background(), "http://example.org/broken")
	assert.ErrorIs(t, err, ErrParse)

	// no markup parser configured
	_, _, err = cache.Resolve(context.Background(), "http://example.org/page")
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
}

func TestResolve_PersistentCacheAvoidsNetwork(t *testing.T) {
	dir := t.TempDir()
	fetcher := newCountingFetcher()
	fetcher.serve("http://example.org/foaf", "text/turtle", foafVocab)
	clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	s, err := storage.NewFileStorage(dir)
	require.NoError(t, err)
	first := New(WithFetcher(fetcher), WithStorage(s), WithClock(clk.Now))
	_, _, err = first.Resolve(context.Background(), "http://example.org/foaf")
	require.NoError(t, err)

	entries, err := first.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "http://example.org/foaf", entries[0].SourceURI)
	assert.Equal(t, ArtifactName("http://example.org/foaf"), entries[0].Artifact)
	assert.WithinDuration(t, clk.Now().Add(DefaultTTL), entries[0].ExpiresAt, 0)

	// a new process: empty memory, same directory
	second := New(WithFetcher(fetcher), WithStorage(s), WithClock(clk.Now))
	v, _, err := second.Resolve(context.Background(), "http://example.org/foaf")
	require.NoError(t, err)
	assert.Equal(t, "http://xmlns.com/foaf/0.1/", v.Prefixes["foaf"])
	assert.Equal(t, 1, fetcher.count("http://example.org/foaf"))
}

func TestResolve_ExpiredEntryIsRefreshed(t *testing.T) {
	s, err := storage.NewBadgerStorage("")
	require.NoError(t, err)
	defer s.Close()

	fetcher := newCountingFetcher()
	fetcher.serve("http://example.org/foaf", "text/turtle", foafVocab)
	clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	_, _, err = New(WithFetcher(fetcher), WithStorage(s), WithClock(clk.Now)).
		Resolve(context.Background(), "http://example.org/foaf")
	require.NoError(t, err)

	clk.advance(25 * time.Hour)
	fetcher.serve("http://example.org/foaf", "text/turtle", `@prefix rdfa: <http://www.w3.org/ns/rdfa#> .
[] rdfa:term "name" ; rdfa:uri "http://example.org/newname" .`)

	v, _, err := New(WithFetcher(fetcher), WithStorage(s), WithClock(clk.Now)).
		Resolve(context.Background(), "http://example.org/foaf")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.count("http://example.org/foaf"))
	assert.Equal(t, "http://example.org/newname", v.Terms["name"])
}

func TestResolve_FailedRefreshFallsBackToStaleCopy(t *testing.T) {
	s, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	fetcher := newCountingFetcher()
	fetcher.serve("http://example.org/foaf", "text/turtle", foafVocab)
	clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	_, _, err = New(WithFetcher(fetcher), WithStorage(s), WithClock(clk.Now)).
		Resolve(context.Background(), "http://example.org/foaf")
	require.NoError(t, err)

	clk.advance(48 * time.Hour)
	fetcher.failing.Store(true)

	cache := New(WithFetcher(fetcher), WithStorage(s), WithClock(clk.Now))
	v, notes, err := cache.Resolve(context.Background(), "http://example.org/foaf")
	require.NoError(t, err)
	assert.Equal(t, "http://xmlns.com/foaf/0.1/name", v.Terms["name"])
	require.NotEmpty(t, notes)
	assert.Equal(t, LevelWarning, notes[len(notes)-1].Level)

	entry, _, err := cache.Lookup("http://example.org/foaf")
	require.NoError(t, err)
	assert.WithinDuration(t, clk.Now().Add(time.Hour), entry.ExpiresAt, 0)

	// within the extra hour the stale copy is used without a fetch
	clk.advance(30 * time.Minute)
	_, _, err = New(WithFetcher(fetcher), WithStorage(s), WithClock(clk.Now)).
		Resolve(context.Background(), "http://example.org/foaf")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.count("http://example.org/foaf"))
}

// recursiveMarkup is a markup parser whose documents reference another vocabulary
type recursiveMarkup struct {
	cache *Cache
	refs  map[string]string
	errs  []error
}

func (m *recursiveMarkup) ParseMarkup(ctx context.Context, r io.Reader, base, mediaType string) ([]*rdf.Triple, error) {
	if ref, ok := m.refs[base]; ok {
		if _, _, err := m.cache.Resolve(ctx, ref); err != nil {
			m.errs = append(m.errs, err)
		}
	}
	return rdf.NewTurtleParser(foafVocab).Parse()
}

func TestResolve_CyclicReferencesAreSkipped(t *testing.T) {
	fetcher := newCountingFetcher()
	fetcher.serve("http://example.org/a", "text/html", "<html/>")
	fetcher.serve("http://example.org/b", "application/xhtml+xml", "<html/>")
	cache := New(WithFetcher(fetcher))
	markup := &recursiveMarkup{cache: cache, refs: map[string]string{
		"http://example.org/a": "http://example.org/b",
		"http://example.org/b": "http://example.org/a",
	}}
	cache.UseMarkupParser(markup)

	done := make(chan struct{})
	go func() {
		defer close(done)
		v, _, err := cache.Resolve(context.Background(), "http://example.org/a")
		assert.NoError(t, err)
		assert.Equal(t, "http://xmlns.com/foaf/0.1/name", v.Terms["name"])
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cyclic vocabulary references deadlocked")
	}

	require.Len(t, markup.errs, 1)
	assert.ErrorIs(t, markup.errs[0], ErrInFlight)
	assert.Equal(t, 1, fetcher.count("http://example.org/a"))
	assert.Equal(t, 1, fetcher.count("http://example.org/b"))
}

func TestWarm(t *testing.T) {
	s, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	fetcher := newCountingFetcher()
	fetcher.serve("http://example.org/foaf", "text/turtle", foafVocab)
	cache := New(WithFetcher(fetcher), WithStorage(s))

	_, err = cache.Warm(context.Background(), "http://example.org/foaf", "http://example.org/missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)

	_, err = cache.Warm(context.Background(), "http://example.org/foaf")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.count("http://example.org/foaf"), "warm always refetches")

	entries, err := cache.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// warmed entries are in memory, too
	_, _, err = cache.Resolve(context.Background(), "http://example.org/foaf")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.count("http://example.org/foaf"))
}

func TestArtifactName(t *testing.T) {
	name := ArtifactName("http://example.org/foaf")
	assert.Len(t, name, 32)
	assert.Equal(t, name, ArtifactName("http://example.org/foaf"))
	assert.NotEqual(t, name, ArtifactName("http://example.org/foaf#"))
	assert.Equal(t, strings.ToLower(name), name)
}
