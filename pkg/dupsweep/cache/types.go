// Package cache memoizes file digests across runs in a Badger store.
// An entry is trusted only while the file's size and modification time
// still match what was recorded.
package cache

import (
	"bytes"
	"encoding/gob"
)

// Version is incremented when the entry encoding changes.
const Version = 1

// keyPrefix namespaces digest entries by format version.
var keyPrefix = []byte{'d', byte('0' + Version), 0}

// Entry is a cached digest for one file.
type Entry struct {
	Size   int64  // File size in bytes when hashed
	Mtime  int64  // Modification time as UnixNano when hashed
	Digest string // Hex content digest
}

// Matches reports whether the entry still describes a file of the given
// size and modification time.
func (e *Entry) Matches(size, mtime int64) bool {
	return e.Size == size && e.Mtime == mtime
}

// Encode serializes the entry to bytes using gob.
func (e *Entry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes bytes into the entry using gob.
func (e *Entry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// MakeKey creates the store key for an absolute file path.
func MakeKey(path string) []byte {
	key := make([]byte, 0, len(keyPrefix)+len(path))
	key = append(key, keyPrefix...)
	return append(key, path...)
}

// ParseKey returns the file path stored in a key.
func ParseKey(key []byte) string {
	return string(bytes.TrimPrefix(key, keyPrefix))
}
