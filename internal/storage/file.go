package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/aleksaelezovic/rdfa/pkg/store"
)

const (
	indexFileName = "index.json"
	artifactDir   = "artifacts"
)

// FileStorage implements store.Storage as plain files in a directory: the
// index table is one JSON document, and every artifact is a file of its own.
// Each file is written to a temporary name and renamed into place, so a
// concurrent reader sees either the previous or the new content.
type FileStorage struct {
	dir string
	mu  sync.Mutex // serializes commits within the process
}

// NewFileStorage creates the directory layout under dir if needed
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Join(dir, artifactDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

// Dir returns the storage directory
func (s *FileStorage) Dir() string {
	return s.dir
}

// Begin starts a new transaction over a snapshot of the index file
func (s *FileStorage) Begin(writable bool) (store.Transaction, error) {
	index, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	return &fileTxn{
		storage:  s,
		writable: writable,
		index:    index,
		pending:  make(map[string]*[]byte),
	}, nil
}

// Close is a no-op; every commit is already on disk
func (s *FileStorage) Close() error {
	return nil
}

// Sync is a no-op; every commit is already on disk
func (s *FileStorage) Sync() error {
	return nil
}

func (s *FileStorage) readIndex() (map[string]json.RawMessage, error) {
	index := make(map[string]json.RawMessage)
	data, err := os.ReadFile(filepath.Join(s.dir, indexFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return index, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache index: %w", err)
	}
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("corrupt cache index: %w", err)
	}
	return index, nil
}

func (s *FileStorage) artifactPath(key []byte) string {
	return filepath.Join(s.dir, artifactDir, string(key))
}

// writeFileAtomic writes data next to path and renames it into place
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// validArtifactKey accepts keys that are safe as a bare file name
func validArtifactKey(key []byte) bool {
	if len(key) == 0 {
		return false
	}
	for _, c := range key {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

type fileTxn struct {
	storage  *FileStorage
	writable bool
	index    map[string]json.RawMessage
	// pending writes keyed by table byte + key; a nil value marks a delete
	pending map[string]*[]byte
	done    bool
}

func pendingKey(table store.Table, key []byte) string {
	return string(store.PrefixKey(table, key))
}

func (t *fileTxn) Get(table store.Table, key []byte) ([]byte, error) {
	if v, ok := t.pending[pendingKey(table, key)]; ok {
		if v == nil {
			return nil, store.ErrNotFound
		}
		return append([]byte(nil), (*v)...), nil
	}

	switch table {
	case store.TableIndex:
		v, ok := t.index[string(key)]
		if !ok {
			return nil, store.ErrNotFound
		}
		return append([]byte(nil), v...), nil
	case store.TableArtifact:
		if !validArtifactKey(key) {
			return nil, store.ErrInvalidKey
		}
		data, err := os.ReadFile(t.storage.artifactPath(key))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrNotFound
		}
		return data, err
	default:
		return nil, fmt.Errorf("unknown table %d", table)
	}
}

func (t *fileTxn) Set(table store.Table, key, value []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	switch table {
	case store.TableIndex:
		if !json.Valid(value) {
			return fmt.Errorf("index value for %q is not JSON", key)
		}
	case store.TableArtifact:
		if !validArtifactKey(key) {
			return store.ErrInvalidKey
		}
	default:
		return fmt.Errorf("unknown table %d", table)
	}
	v := append([]byte(nil), value...)
	t.pending[pendingKey(table, key)] = &v
	return nil
}

func (t *fileTxn) Delete(table store.Table, key []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	t.pending[pendingKey(table, key)] = nil
	return nil
}

func (t *fileTxn) Scan(table store.Table, start, end []byte) (store.Iterator, error) {
	keys := make(map[string]bool)
	switch table {
	case store.TableIndex:
		for k := range t.index {
			keys[k] = true
		}
	case store.TableArtifact:
		entries, err := os.ReadDir(filepath.Join(t.storage.dir, artifactDir))
		if err != nil {
			return nil, fmt.Errorf("failed to list artifacts: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && validArtifactKey([]byte(e.Name())) {
				keys[e.Name()] = true
			}
		}
	default:
		return nil, fmt.Errorf("unknown table %d", table)
	}

	prefix := string(store.TablePrefix(table))
	for pk, v := range t.pending {
		if pk[:1] != prefix {
			continue
		}
		keys[pk[1:]] = v != nil
	}

	var items []string
	for k, live := range keys {
		if !live {
			continue
		}
		if start != nil && bytes.Compare([]byte(k), start) < 0 {
			continue
		}
		if end != nil && bytes.Compare([]byte(k), end) >= 0 {
			continue
		}
		items = append(items, k)
	}
	sort.Strings(items)

	return &fileIterator{txn: t, table: table, keys: items, pos: -1}, nil
}

// Commit writes artifacts first and the index last, so an index entry never
// points at an artifact that is not yet on disk.
func (t *fileTxn) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	if !t.writable || len(t.pending) == 0 {
		return nil
	}

	s := t.storage
	s.mu.Lock()
	defer s.mu.Unlock()

	indexChanged := false
	for pk, v := range t.pending {
		table, key := store.Table(pk[0]), []byte(pk[1:])
		if table == store.TableIndex {
			indexChanged = true
			continue
		}
		if v == nil {
			if err := os.Remove(s.artifactPath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to remove artifact: %w", err)
			}
			continue
		}
		if err := writeFileAtomic(s.artifactPath(key), *v); err != nil {
			return fmt.Errorf("failed to write artifact: %w", err)
		}
	}
	if !indexChanged {
		return nil
	}

	// merge into the current on-disk index so commits from other
	// transactions since Begin are kept
	index, err := s.readIndex()
	if err != nil {
		index = make(map[string]json.RawMessage)
	}
	for pk, v := range t.pending {
		if store.Table(pk[0]) != store.TableIndex {
			continue
		}
		if v == nil {
			delete(index, pk[1:])
		} else {
			index[pk[1:]] = json.RawMessage(*v)
		}
	}

	data, err := encodeIndex(index)
	if err != nil {
		return fmt.Errorf("failed to encode cache index: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.dir, indexFileName), data); err != nil {
		return fmt.Errorf("failed to write cache index: %w", err)
	}
	return nil
}

// encodeIndex writes the index as one JSON object, one entry per line in key
// order. Values are copied verbatim so Get returns the bytes given to Set.
func encodeIndex(index map[string]json.RawMessage) ([]byte, error) {
	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			buf.WriteString(",")
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.WriteString("\n  ")
		buf.Write(name)
		buf.WriteString(": ")
		buf.Write(index[k])
	}
	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

func (t *fileTxn) Rollback() error {
	t.done = true
	t.pending = make(map[string]*[]byte)
	return nil
}

type fileIterator struct {
	txn   *fileTxn
	table store.Table
	keys  []string
	pos   int
}

func (i *fileIterator) Next() bool {
	i.pos++
	return i.pos < len(i.keys)
}

func (i *fileIterator) Key() []byte {
	if i.pos < 0 || i.pos >= len(i.keys) {
		return nil
	}
	return []byte(i.keys[i.pos])
}

func (i *fileIterator) Value() ([]byte, error) {
	if i.pos < 0 || i.pos >= len(i.keys) {
		return nil, store.ErrNotFound
	}
	return i.txn.Get(i.table, []byte(i.keys[i.pos]))
}

func (i *fileIterator) Close() error {
	return nil
}
