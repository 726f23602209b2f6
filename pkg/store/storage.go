// Package store defines the key-value seam behind the persistent vocabulary
// cache. Keys live in tables; records are JSON documents.
package store

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("key not found")
	ErrTransactionRO = errors.New("transaction is read-only")
	ErrInvalidKey    = errors.New("invalid key")
)

// Storage is the interface for the persistent vocabulary cache backend
type Storage interface {
	// Begin starts a new transaction
	Begin(writable bool) (Transaction, error)

	// Close closes the storage
	Close() error

	// Sync flushes writes to disk
	Sync() error
}

// Transaction groups reads and writes against a consistent view of the storage
type Transaction interface {
	// Get returns the value of key, or ErrNotFound
	Get(table Table, key []byte) ([]byte, error)

	// Set fails with ErrTransactionRO outside a writable transaction, and
	// with ErrInvalidKey for keys the backend cannot store
	Set(table Table, key, value []byte) error

	Delete(table Table, key []byte) error

	// Scan visits the keys in [start, end) in order; nil bounds are open
	Scan(table Table, start, end []byte) (Iterator, error)

	// Commit makes the writes visible to later transactions
	Commit() error
	Rollback() error
}

// Iterator walks the result of a Scan. Key is valid until the next call to
// Next.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Close() error
}

// Table namespaces the keys of one kind of record
type Table byte

const (
	// Source URI -> index entry (artifact name, creation and expiry times)
	TableIndex Table = iota

	// Artifact name -> serialized vocabulary
	TableArtifact
)

func (t Table) String() string {
	switch t {
	case TableIndex:
		return "index"
	case TableArtifact:
		return "artifact"
	default:
		return "unknown"
	}
}

// TablePrefix returns a byte prefix for a table to namespace keys
func TablePrefix(table Table) []byte {
	return []byte{byte(table)}
}

// PrefixKey adds a table prefix to a key
func PrefixKey(table Table, key []byte) []byte {
	prefix := TablePrefix(table)
	result := make([]byte, len(prefix)+len(key))
	copy(result, prefix)
	copy(result[len(prefix):], key)
	return result
}
