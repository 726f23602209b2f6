// Package vocab resolves vocabulary (profile) documents into term, prefix and
// default vocabulary mappings, caching the result in memory for the lifetime
// of a Cache and persistently across runs.
package vocab

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/zeebo/xxh3"
)

// Vocabulary is the information extracted from one vocabulary document
type Vocabulary struct {
	Terms      map[string]string `json:"terms"`
	Prefixes   map[string]string `json:"prefixes"`
	Vocabulary string            `json:"vocabulary,omitempty"`
}

// NewVocabulary returns an empty vocabulary
func NewVocabulary() *Vocabulary {
	return &Vocabulary{
		Terms:    make(map[string]string),
		Prefixes: make(map[string]string),
	}
}

// Level is the severity of a Note
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Note is a processor message produced while resolving a vocabulary.
// Source is the vocabulary URI the note is about.
type Note struct {
	Level   Level
	Message string
	Source  string
}

func (n Note) String() string {
	return fmt.Sprintf("%s: %s (%s)", n.Level, n.Message, n.Source)
}

// ExcludedSources are profile URIs in common use that are not vocabulary
// documents; resolving one yields an empty vocabulary without a fetch.
var ExcludedSources = []string{
	"http://www.w3.org/2005/11/profile",
	"http://www.w3.org/2003/g/data-view",
}

// IsExcluded reports whether uri is one of ExcludedSources
func IsExcluded(uri string) bool {
	return slices.Contains(ExcludedSources, uri)
}

// Entry is one record of the persistent cache index
type Entry struct {
	SourceURI    string    `json:"source"`
	Artifact     string    `json:"artifact"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastModified time.Time `json:"last_modified,omitzero"`
}

// Expired reports whether the entry must be refreshed at time now
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// ArtifactName derives the artifact key of a source URI: the hex encoded
// 128-bit xxh3 hash of the URI.
func ArtifactName(uri string) string {
	hash := xxh3.Hash128([]byte(uri))
	var sum [16]byte
	binary.BigEndian.PutUint64(sum[0:8], hash.Hi)
	binary.BigEndian.PutUint64(sum[8:16], hash.Lo)
	return hex.EncodeToString(sum[:])
}

var ncname = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]*$`)

// IsNCName reports whether s is acceptable as a term or prefix name
func IsNCName(s string) bool {
	return ncname.MatchString(s)
}
