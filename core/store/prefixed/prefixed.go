// Package prefixed separates the namespaces of the global state inside a
// single store snapshot. Every key is hashed together with the namespace so
// that two namespaces can never collide.
package prefixed

import (
	"encoding/binary"

	"go.dedis.ch/capvm/core/store"
	"golang.org/x/crypto/blake2b"
)

type readable struct {
	store.Readable
	prefix []byte
}

type writable struct {
	store.Writable
	prefix []byte
}

type snapshot struct {
	*writable
	*readable
}

// NewSnapshot creates a new prefixed Snapshot.
func NewSnapshot(prefix string, snap store.Snapshot) store.Snapshot {
	p := []byte(prefix)
	return &snapshot{
		&writable{snap, p},
		&readable{snap, p},
	}
}

// NewReadable creates a new prefixed Readable.
func NewReadable(prefix string, r store.Readable) store.Readable {
	p := []byte(prefix)
	return &readable{r, p}
}

// Get implements store.Readable.
func (s *readable) Get(key []byte) ([]byte, error) {
	return s.Readable.Get(NewPrefixedKey(s.prefix, key))
}

// Set implements store.Writable.
func (s *writable) Set(key []byte, value []byte) error {
	return s.Writable.Set(NewPrefixedKey(s.prefix, key), value)
}

// Delete implements store.Writable.
func (s *writable) Delete(key []byte) error {
	return s.Writable.Delete(NewPrefixedKey(s.prefix, key))
}

// NewPrefixedKey creates a 256-bit key from a prefix and a base key. Both are
// length-prefixed before hashing.
func NewPrefixedKey(prefix, key []byte) []byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}

	length := make([]byte, 4)

	binary.LittleEndian.PutUint32(length, uint32(len(prefix)))
	h.Write(length)
	h.Write(prefix)

	binary.LittleEndian.PutUint32(length, uint32(len(key)))
	h.Write(length)
	h.Write(key)

	return h.Sum(nil)
}
