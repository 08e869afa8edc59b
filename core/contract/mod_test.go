package contract

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/capvm/core/state"
	"go.dedis.ch/capvm/core/store/mem"
	"go.dedis.ch/capvm/core/store/prefixed"
	"go.dedis.ch/capvm/core/uref"
	"go.dedis.ch/capvm/internal/testing/fake"
	"golang.org/x/xerrors"
)

func makeRecord() Record {
	nk := uref.NewNamedKeys()
	nk.Bind("count", uref.NewURefKey(uref.NewGenerator([]byte("seed")).Mint()))

	return Record{
		Module:     "counter",
		EntryPoint: "counter_ext",
		NamedKeys:  nk,
	}
}

func TestRegistry_Register(t *testing.T) {
	snap := fake.NewSnapshot()

	reg, err := NewRegistry(snap)
	require.NoError(t, err)

	id, err := reg.Register(makeRecord())
	require.NoError(t, err)
	require.Equal(t, 1, snap.Len())

	// Identical inputs give the same identity without a new record.
	id2, err := reg.Register(makeRecord())
	require.NoError(t, err)
	require.Equal(t, id, id2)
	require.Equal(t, 1, snap.Len())

	first, err := reg.Lookup(id)
	require.NoError(t, err)
	require.True(t, makeRecord().Equal(first))

	second, err := reg.Lookup(id)
	require.NoError(t, err)
	require.True(t, first.Equal(second))

	other := makeRecord()
	other.EntryPoint = "other"

	id3, err := reg.Register(other)
	require.NoError(t, err)
	require.NotEqual(t, id, id3)
}

func TestRegistry_Lookup(t *testing.T) {
	reg, err := NewRegistry(mem.NewSnapshot(), WithCacheSize(1))
	require.NoError(t, err)

	_, err = reg.Lookup(uref.Hash{1})
	require.True(t, xerrors.Is(err, ErrContractNotFound))

	id, err := reg.Register(makeRecord())
	require.NoError(t, err)

	rec, err := reg.Lookup(id)
	require.NoError(t, err)

	// Modifying the returned keys does not modify the registered ones.
	rec.NamedKeys.Bind("extra", uref.NewHashKey(uref.Hash{}))

	rec, err = reg.Lookup(id)
	require.NoError(t, err)
	require.False(t, rec.NamedKeys.Has("extra"))
}

func TestRegistry_LookupAfterRollback(t *testing.T) {
	j := state.NewJournal(mem.NewSnapshot())

	reg, err := NewRegistry(j)
	require.NoError(t, err)

	j.Begin()

	id, err := reg.Register(makeRecord())
	require.NoError(t, err)

	_, err = reg.Lookup(id)
	require.NoError(t, err)

	require.NoError(t, j.Rollback())

	_, err = reg.Lookup(id)
	require.True(t, xerrors.Is(err, ErrContractNotFound))
}

func TestRegistry_IdentityIgnoresOrder(t *testing.T) {
	a := uref.NewNamedKeys()
	a.Bind("x", uref.NewHashKey(uref.Hash{1}))
	a.Bind("y", uref.NewHashKey(uref.Hash{2}))

	b := uref.NewNamedKeys()
	b.Bind("y", uref.NewHashKey(uref.Hash{2}))
	b.Bind("x", uref.NewHashKey(uref.Hash{1}))

	ida, _, err := Identity(Record{Module: "m", EntryPoint: "e", NamedKeys: a})
	require.NoError(t, err)

	idb, _, err := Identity(Record{Module: "m", EntryPoint: "e", NamedKeys: b})
	require.NoError(t, err)

	require.Equal(t, ida, idb)

	a.Bind("bad", uref.Key{})
	_, _, err = Identity(Record{NamedKeys: a})
	require.EqualError(t, err, "failed to encode record: failed to encode: unknown key type 0")
}

func TestRegistry_Failures(t *testing.T) {
	_, err := NewRegistry(mem.NewSnapshot(), WithCacheSize(0))
	require.EqualError(t, err, "failed to create cache: must provide a positive size")

	reg, err := NewRegistry(fake.NewBadSnapshot())
	require.NoError(t, err)

	_, err = reg.Register(makeRecord())
	require.EqualError(t, err, fake.Err("failed to read store"))

	_, err = reg.Lookup(uref.Hash{})
	require.EqualError(t, err, fake.Err("failed to read store"))

	snap := fake.NewSnapshot()
	snap.ErrWrite = fake.GetError()

	reg, err = NewRegistry(snap)
	require.NoError(t, err)

	_, err = reg.Register(makeRecord())
	require.EqualError(t, err, fake.Err("failed to write store"))
}

func TestRegistry_Corrupted(t *testing.T) {
	snap := mem.NewSnapshot()

	reg, err := NewRegistry(snap)
	require.NoError(t, err)

	id := uref.Hash{9}
	records := prefixed.NewSnapshot(Prefix, snap)

	require.NoError(t, records.Set(id[:], []byte{0xee}))

	_, err = reg.Lookup(id)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to decode record")
}
