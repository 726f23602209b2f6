package vocab

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aleksaelezovic/rdfa/pkg/rdf"
	"github.com/pquerna/cachecontrol"
	"go.trai.ch/zerr"
)

// AcceptHeader prefers Turtle, then RDFa in (X)HTML, then the other RDF syntaxes
const AcceptHeader = "text/turtle;q=1.0, application/xhtml+xml;q=0.8, text/html;q=0.8, " +
	"application/rdf+xml;q=0.7, application/n-triples;q=0.5, application/ld+json;q=0.3"

// DefaultTTL is how long a fetched vocabulary stays fresh when the server
// gives no caching information
const DefaultTTL = 24 * time.Hour

// Response is a retrieved vocabulary document
type Response struct {
	Body         []byte
	ContentType  string
	ExpiresAt    time.Time // zero when the fetcher has no opinion
	LastModified time.Time
}

// Fetcher retrieves vocabulary documents
type Fetcher interface {
	Fetch(ctx context.Context, uri, accept string) (*Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(ctx context.Context, uri, accept string) (*Response, error)

func (f FetcherFunc) Fetch(ctx context.Context, uri, accept string) (*Response, error) {
	return f(ctx, uri, accept)
}

// HTTPFetcher fetches documents over HTTP(S) and from file:// URIs. The
// expiry of a response follows its Cache-Control and Expires headers.
type HTTPFetcher struct {
	Client     *http.Client
	DefaultTTL time.Duration
	Now        func() time.Time
	// MaxBytes rejects larger documents with ErrTooLarge; zero means no limit
	MaxBytes int64
}

// NewHTTPFetcher creates a fetcher with the given request timeout (zero
// leaves the transport default in place)
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))

	return &HTTPFetcher{
		Client:     &http.Client{Transport: transport, Timeout: timeout},
		DefaultTTL: DefaultTTL,
		Now:        time.Now,
	}
}

// Fetch retrieves uri with the given Accept header
func (f *HTTPFetcher) Fetch(ctx context.Context, uri, accept string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, zerr.With(zerr.New("unexpected HTTP status"), "status", resp.Status)
	}

	var body io.Reader = resp.Body
	if f.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, f.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, zerr.Wrap(err, "error reading body")
	}
	if f.MaxBytes > 0 && int64(len(data)) > f.MaxBytes {
		return nil, zerr.With(zerr.Wrap(ErrTooLarge, "document exceeds size limit"), "max_bytes", f.MaxBytes)
	}

	contentType := rdf.MediaType(resp.Header.Get("Content-Type"))
	// the file transport sniffs unknown suffixes as text/plain
	if contentType == "" || (req.URL.Scheme == "file" && contentType == "text/plain") {
		if guessed := MediaTypeForSuffix(uri); guessed != "" {
			contentType = guessed
		}
	}

	result := &Response{
		Body:        data,
		ContentType: contentType,
		ExpiresAt:   f.expiry(req, resp),
	}
	if lm, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		result.LastModified = lm
	}
	return result, nil
}

func (f *HTTPFetcher) expiry(req *http.Request, resp *http.Response) time.Time {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	ttl := f.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	reasons, expires, err := cachecontrol.CachableResponse(req, resp, cachecontrol.Options{PrivateCache: true})
	if err == nil && len(reasons) == 0 && expires.After(now()) {
		return expires
	}
	return now().Add(ttl)
}

var suffixMediaTypes = []struct {
	suffix    string
	mediaType string
}{
	{".ttl", "text/turtle"},
	{".n3", "text/n3"},
	{".nt", "application/n-triples"},
	{".rdf", "application/rdf+xml"},
	{".owl", "application/rdf+xml"},
	{".jsonld", "application/ld+json"},
	{".html", "text/html"},
	{".htm", "text/html"},
	{".xhtml", "application/xhtml+xml"},
	{".svg", "image/svg+xml"},
	{".xml", "application/xml"},
}

// MediaTypeForSuffix guesses a media type from the file suffix of uri, for
// servers and file:// sources that do not report one
func MediaTypeForSuffix(uri string) string {
	path := uri
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.ToLower(path)
	for _, s := range suffixMediaTypes {
		if strings.HasSuffix(path, s.suffix) {
			return s.mediaType
		}
	}
	return ""
}

// IsMarkupMediaType reports whether documents of mediaType carry RDFa
// rather than a plain RDF syntax
func IsMarkupMediaType(mediaType string) bool {
	switch mediaType {
	case "text/html", "application/xhtml+xml", "application/xml", "text/xml":
		return true
	case "application/rdf+xml":
		return false
	}
	return strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+xml") ||
		mediaType == "image/svg+xml"
}
