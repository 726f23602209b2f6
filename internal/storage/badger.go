package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/aleksaelezovic/rdfa/pkg/store"
	badger "github.com/dgraph-io/badger/v4"
)

// BadgerStorage implements store.Storage on top of BadgerDB. Both cache
// tables share one keyspace, separated by a one byte table prefix.
type BadgerStorage struct {
	db *badger.DB
}

// NewBadgerStorage opens a BadgerDB-backed storage in dir. An empty dir opens
// an in-memory database that is discarded on Close.
func NewBadgerStorage(dir string) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &BadgerStorage{db: db}, nil
}

// Begin starts a new transaction
func (s *BadgerStorage) Begin(writable bool) (store.Transaction, error) {
	return &badgerTxn{
		txn:      s.db.NewTransaction(writable),
		writable: writable,
	}, nil
}

// Close closes the storage
func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

// Sync flushes writes to disk
func (s *BadgerStorage) Sync() error {
	if s.db.Opts().InMemory {
		return nil
	}
	return s.db.Sync()
}

type badgerTxn struct {
	txn      *badger.Txn
	writable bool
}

func (t *badgerTxn) Get(table store.Table, key []byte) ([]byte, error) {
	item, err := t.txn.Get(store.PrefixKey(table, key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *badgerTxn) Set(table store.Table, key, value []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	return t.txn.Set(store.PrefixKey(table, key), value)
}

func (t *badgerTxn) Delete(table store.Table, key []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	return t.txn.Delete(store.PrefixKey(table, key))
}

func (t *badgerTxn) Scan(table store.Table, start, end []byte) (store.Iterator, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = store.TablePrefix(table)

	seekKey := store.PrefixKey(table, start)
	var endKey []byte
	if end != nil {
		endKey = store.PrefixKey(table, end)
	}

	return &badgerIterator{
		it:      t.txn.NewIterator(opts),
		prefix:  opts.Prefix,
		seekKey: seekKey,
		endKey:  endKey,
	}, nil
}

func (t *badgerTxn) Commit() error {
	if !t.writable {
		t.txn.Discard()
		return nil
	}
	return t.txn.Commit()
}

func (t *badgerTxn) Rollback() error {
	t.txn.Discard()
	return nil
}

type badgerIterator struct {
	it       *badger.Iterator
	prefix   []byte // table prefix stripped from returned keys
	seekKey  []byte
	endKey   []byte
	started  bool
	hasValue bool
}

func (i *badgerIterator) Next() bool {
	if !i.started {
		i.it.Seek(i.seekKey)
		i.started = true
	} else {
		i.it.Next()
	}

	i.hasValue = i.it.Valid() &&
		(i.endKey == nil || bytes.Compare(i.it.Item().Key(), i.endKey) < 0)
	return i.hasValue
}

func (i *badgerIterator) Key() []byte {
	if !i.hasValue {
		return nil
	}
	return i.it.Item().KeyCopy(nil)[len(i.prefix):]
}

func (i *badgerIterator) Value() ([]byte, error) {
	if !i.hasValue {
		return nil, store.ErrNotFound
	}
	return i.it.Item().ValueCopy(nil)
}

func (i *badgerIterator) Close() error {
	i.it.Close()
	return nil
}
