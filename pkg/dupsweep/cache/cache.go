package cache

import (
	"errors"
	"sync"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/logging"
)

var logger = logging.Get("cache")

// Digester computes a digest for a file path.
type Digester interface {
	Sum(path string) (string, error)
}

// Cache provides digest lookups backed by a Store.
type Cache struct {
	store *Store
}

// Open opens or creates a cache at the given directory.
func Open(path string) (*Cache, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	return &Cache{store: store}, nil
}

// Close closes the cache.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Lookup returns the cached digest for path if the entry still matches
// the given size and modification time.
func (c *Cache) Lookup(path string, size, mtime int64) (string, bool) {
	entry, err := c.store.Get(path)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Debug("cache read failed", "path", path, "err", err)
		}
		return "", false
	}
	if !entry.Matches(size, mtime) {
		return "", false
	}
	return entry.Digest, true
}

// Len returns the number of cached digests.
func (c *Cache) Len() (int, error) {
	return c.store.Count()
}

// Forget drops cached digests for paths that were removed. A removed
// directory takes the digests of every file below it along.
func (c *Cache) Forget(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	return c.store.DeleteTrees(paths)
}

// Hasher wraps a Digester with cache lookups. Fresh digests are
// buffered and written when Flush is called.
type Hasher struct {
	cache  *Cache
	next   Digester
	mu     sync.Mutex
	stat   func(path string) (size, mtime int64, err error)
	fresh  map[string]*Entry
	hits   int64
	misses int64
}

// NewHasher returns a caching Digester in front of next.
func NewHasher(c *Cache, next Digester) *Hasher {
	return &Hasher{
		cache: c,
		next:  next,
		stat:  statFile,
		fresh: make(map[string]*Entry),
	}
}

// Sum returns the cached digest when the file is unchanged, and hashes
// it through the wrapped Digester otherwise.
func (h *Hasher) Sum(path string) (string, error) {
	size, mtime, err := h.stat(path)
	if err != nil {
		return h.next.Sum(path)
	}

	if digest, ok := h.cache.Lookup(path, size, mtime); ok {
		h.mu.Lock()
		h.hits++
		h.mu.Unlock()
		return digest, nil
	}

	digest, err := h.next.Sum(path)
	if err != nil {
		return "", err
	}

	h.mu.Lock()
	h.misses++
	h.fresh[path] = &Entry{Size: size, Mtime: mtime, Digest: digest}
	h.mu.Unlock()

	return digest, nil
}

// Stats returns cache hits and misses since creation.
func (h *Hasher) Stats() (hits, misses int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hits, h.misses
}

// Flush writes buffered digests to the store.
func (h *Hasher) Flush() error {
	h.mu.Lock()
	fresh := h.fresh
	h.fresh = make(map[string]*Entry)
	h.mu.Unlock()

	if len(fresh) == 0 {
		return nil
	}
	return h.cache.store.PutBatch(fresh)
}
