package cache

import (
	"errors"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when a cache entry doesn't exist.
var ErrNotFound = errors.New("cache entry not found")

// Store wraps Badger for digest entries.
type Store struct {
	db *badger.DB
}

// OpenStore opens or creates a store at the given directory.
func OpenStore(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get retrieves the entry for path.
func (s *Store) Get(path string) (*Entry, error) {
	var entry Entry

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(MakeKey(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(entry.Decode)
	})

	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Put stores a single entry.
func (s *Store) Put(path string, entry *Entry) error {
	value, err := entry.Encode()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(MakeKey(path), value)
	})
}

// Delete removes the entry for path.
func (s *Store) Delete(path string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(MakeKey(path))
	})
}

// PutBatch stores multiple entries in a single write batch.
func (s *Store) PutBatch(entries map[string]*Entry) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for path, entry := range entries {
		value, err := entry.Encode()
		if err != nil {
			return err
		}
		if err := wb.Set(MakeKey(path), value); err != nil {
			return err
		}
	}

	return wb.Flush()
}

// DeleteBatch removes the entries for all given paths.
func (s *Store) DeleteBatch(paths []string) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, path := range paths {
		if err := wb.Delete(MakeKey(path)); err != nil {
			return err
		}
	}

	return wb.Flush()
}

// DeleteTrees removes the entries for paths and for every path below them.
func (s *Store) DeleteTrees(paths []string) error {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for _, path := range paths {
			keys = append(keys, MakeKey(path))
			prefix := MakeKey(path + string(filepath.Separator))
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return err
		}
	}

	return wb.Flush()
}

// Count returns the number of stored entries.
func (s *Store) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}
