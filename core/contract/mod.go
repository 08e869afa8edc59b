// Package contract implements the registry of the stored contracts.
//
// A contract is identified by the hash of its canonical record, which makes
// the registration idempotent: registering the same code with the same named
// keys twice returns the same identity and stores the record once.
package contract

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"go.dedis.ch/capvm"
	"go.dedis.ch/capvm/core/store"
	"go.dedis.ch/capvm/core/store/prefixed"
	"go.dedis.ch/capvm/core/uref"
	"golang.org/x/xerrors"
)

// Prefix is the namespace of the records in the snapshot.
const Prefix = "contract"

const defaultCacheSize = 128

// ErrContractNotFound is returned when looking up an identity that is not
// registered.
var ErrContractNotFound = xerrors.New("contract not found")

// Option is the type of options to create a registry.
type Option func(*Registry)

// WithCacheSize sets the number of decoded records kept in memory.
func WithCacheSize(size int) Option {
	return func(r *Registry) {
		r.cacheSize = size
	}
}

// Registry stores the contract records in a snapshot.
type Registry struct {
	snap      store.Snapshot
	cacheSize int
	cache     *lru.Cache[uref.Hash, Record]
}

// NewRegistry returns a registry over the snapshot.
func NewRegistry(snap store.Snapshot, opts ...Option) (*Registry, error) {
	r := &Registry{
		snap:      prefixed.NewSnapshot(Prefix, snap),
		cacheSize: defaultCacheSize,
	}

	for _, opt := range opts {
		opt(r)
	}

	cache, err := lru.New[uref.Hash, Record](r.cacheSize)
	if err != nil {
		return nil, xerrors.Errorf("failed to create cache: %v", err)
	}

	r.cache = cache

	return r, nil
}

// Register stores the record if it is not already and returns its identity.
func (r *Registry) Register(rec Record) (uref.Hash, error) {
	id, data, err := Identity(rec)
	if err != nil {
		return uref.Hash{}, err
	}

	existing, err := r.snap.Get(id[:])
	if err != nil {
		return uref.Hash{}, xerrors.Errorf("failed to read store: %v", err)
	}

	if existing != nil {
		capvm.Logger.Trace().Stringer("contract", id).Msg("contract already registered")
		return id, nil
	}

	err = r.snap.Set(id[:], data)
	if err != nil {
		return uref.Hash{}, xerrors.Errorf("failed to write store: %v", err)
	}

	capvm.Logger.Debug().
		Stringer("contract", id).
		Str("module", rec.Module).
		Str("entry", rec.EntryPoint).
		Int("keys", rec.NamedKeys.Len()).
		Msg("contract registered")

	return id, nil
}

// Lookup returns the record of the identity. The named keys of the returned
// record are a copy that can be modified freely.
func (r *Registry) Lookup(id uref.Hash) (Record, error) {
	data, err := r.snap.Get(id[:])
	if err != nil {
		return Record{}, xerrors.Errorf("failed to read store: %v", err)
	}

	// The presence is always checked against the store as a registration can
	// be undone by a trap.
	if data == nil {
		return Record{}, xerrors.Errorf("%v: %w", id, ErrContractNotFound)
	}

	rec, found := r.cache.Get(id)
	if found {
		return clone(rec), nil
	}

	rec, err = decodeRecord(data)
	if err != nil {
		return Record{}, xerrors.Errorf("failed to decode record %v: %w", id, err)
	}

	r.cache.Add(id, rec)

	return clone(rec), nil
}

func clone(rec Record) Record {
	rec.NamedKeys = rec.NamedKeys.Clone()
	return rec
}
