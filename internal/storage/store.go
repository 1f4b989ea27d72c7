package storage

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

const sequenceKey = "seq/global"

// Store wraps a BadgerDB instance behind a small keyed-bucket interface.
// Keys are prefix-namespaced strings, values are JSON. Every multi-entity
// mutation in the platform runs inside a single Update transaction, so the
// stores it touches can never diverge on a crash.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
}

// Open initializes a disk-backed store at the given path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // disable internal logging
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger db: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// OpenInMemory initializes an ephemeral store, used in tests.
func OpenInMemory(logger *zap.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening in-memory badger db: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying BadgerDB.
func (s *Store) Close() error {
	return s.db.Close()
}

// Update runs fn inside a read-write transaction. All writes commit together
// or not at all.
func (s *Store) Update(fn func(tx *Tx) error) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&Tx{txn: txn})
	})
}

// View runs fn inside a read-only transaction.
func (s *Store) View(fn func(tx *Tx) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&Tx{txn: txn})
	})
}

// Tx is a transaction handle passed through service code.
type Tx struct {
	txn *badger.Txn
}

// Get unmarshals the value at key into out. Returns false when the key is absent.
func (t *Tx) Get(key string, out any) (bool, error) {
	item, err := t.txn.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := item.Value(func(v []byte) error {
		return json.Unmarshal(v, out)
	}); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Put marshals v and stores it at key, overwriting any previous value.
func (t *Tx) Put(key string, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := t.txn.Set([]byte(key), val); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Scan iterates all values under prefix in key order.
func (t *Tx) Scan(prefix string, fn func(key string, val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := t.txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		key := string(item.Key())
		if err := item.Value(func(v []byte) error {
			return fn(key, v)
		}); err != nil {
			return err
		}
	}
	return nil
}

// Decode unmarshals a raw value produced by Scan.
func Decode(val []byte, out any) error {
	return json.Unmarshal(val, out)
}

// Count returns the number of keys under prefix.
func (t *Tx) Count(prefix string) (uint64, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false
	it := t.txn.NewIterator(opts)
	defer it.Close()
	var n uint64
	for it.Rewind(); it.Valid(); it.Next() {
		n++
	}
	return n, nil
}

// NextID hands out the next identifier from the shared sequence. Identifiers
// are strictly increasing across all entity kinds; the read-increment-write
// is safe because it commits with the enclosing transaction.
func (t *Tx) NextID() (uint64, error) {
	var current uint64
	item, err := t.txn.Get([]byte(sequenceKey))
	switch err {
	case nil:
		if err := item.Value(func(v []byte) error {
			parsed, perr := strconv.ParseUint(string(v), 10, 64)
			if perr != nil {
				return perr
			}
			current = parsed
			return nil
		}); err != nil {
			return 0, fmt.Errorf("decode sequence: %w", err)
		}
	case badger.ErrKeyNotFound:
		current = 0
	default:
		return 0, fmt.Errorf("read sequence: %w", err)
	}

	next := current + 1
	if err := t.txn.Set([]byte(sequenceKey), []byte(strconv.FormatUint(next, 10))); err != nil {
		return 0, fmt.Errorf("write sequence: %w", err)
	}
	return next, nil
}
