// Package mem implements an in-memory store snapshot.
//
// A snapshot can be staged on top of a parent: reads fall back to the parent
// for the keys the snapshot has not touched, and writes stay local until they
// are committed. This is used to dry-run deployments without altering the
// underlying state.
package mem

import (
	"sort"

	"go.dedis.ch/capvm/core/store"
	"golang.org/x/xerrors"
)

type item struct {
	value   []byte
	deleted bool
}

// Snapshot is an in-memory implementation of a store snapshot.
//
// - implements store.Snapshot
type Snapshot struct {
	parent store.Readable
	items  map[string]item
}

// NewSnapshot returns a new empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		items: make(map[string]item),
	}
}

// NewStaged returns a snapshot that reads through the parent.
func NewStaged(parent store.Readable) *Snapshot {
	snap := NewSnapshot()
	snap.parent = parent

	return snap
}

// Get implements store.Readable. It returns the value of the key, or nil if it
// is not set.
func (s *Snapshot) Get(key []byte) ([]byte, error) {
	it, found := s.items[string(key)]
	if found {
		if it.deleted {
			return nil, nil
		}

		return it.value, nil
	}

	if s.parent == nil {
		return nil, nil
	}

	value, err := s.parent.Get(key)
	if err != nil {
		return nil, xerrors.Errorf("parent: %v", err)
	}

	return value, nil
}

// Set implements store.Writable. It sets the value of the key.
func (s *Snapshot) Set(key, value []byte) error {
	s.items[string(key)] = item{value: append([]byte{}, value...)}

	return nil
}

// Delete implements store.Writable. It deletes the key.
func (s *Snapshot) Delete(key []byte) error {
	s.items[string(key)] = item{deleted: true}

	return nil
}

// Len returns the number of keys written or deleted in this snapshot.
func (s *Snapshot) Len() int {
	return len(s.items)
}

// Commit applies the local writes to the destination in key order, then clears
// them.
func (s *Snapshot) Commit(dst store.Writable) error {
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		it := s.items[k]

		var err error
		if it.deleted {
			err = dst.Delete([]byte(k))
		} else {
			err = dst.Set([]byte(k), it.value)
		}

		if err != nil {
			return xerrors.Errorf("failed to commit key %#x: %v", k, err)
		}
	}

	s.items = make(map[string]item)

	return nil
}
