package vocab

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrInFlight is returned when a vocabulary is requested while its own
	// resolution is still running further up the same chain, or when a nested
	// resolution would have to wait on another one.
	ErrInFlight = zerr.New("vocabulary resolution already in progress")

	// ErrFetch is returned when a vocabulary document cannot be retrieved.
	ErrFetch = zerr.New("vocabulary document unreachable")

	// ErrParse is returned when a vocabulary document cannot be parsed.
	ErrParse = zerr.New("vocabulary document unparsable")

	// ErrTooLarge is returned for documents over the fetcher's size limit.
	ErrTooLarge = zerr.New("vocabulary document too large")

	// ErrUnsupportedMediaType is returned for documents of an unknown type.
	ErrUnsupportedMediaType = zerr.New("unrecognised vocabulary media type")
)

// classify joins a sentinel with the underlying cause annotated with the source URI
func classify(sentinel, cause error, uri string) error {
	return errors.Join(sentinel, zerr.With(cause, "uri", uri))
}
