package value

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/capvm/core/uref"
	"golang.org/x/xerrors"
)

func TestNamedKeys_Map(t *testing.T) {
	gen := uref.NewGenerator([]byte("seed"))

	first := uref.NewNamedKeys()
	first.Bind("b", uref.NewURefKey(gen.Mint()))
	first.Bind("a", uref.NewHashKey(uref.Hash{2}))

	second := uref.NewNamedKeys()
	second.Bind("a", uref.NewHashKey(uref.Hash{2}))
	b, err := first.Resolve("b")
	require.NoError(t, err)
	second.Bind("b", b)

	m1, err := FromNamedKeys(first)
	require.NoError(t, err)

	m2, err := FromNamedKeys(second)
	require.NoError(t, err)
	require.True(t, Equal(m1, m2))
	require.Equal(t, 2, m1.Len())

	nk, err := ToNamedKeys(m1)
	require.NoError(t, err)
	require.True(t, nk.Equal(first))
	require.Equal(t, []string{"a", "b"}, nk.Names())
}

func TestNamedKeys_InvalidMap(t *testing.T) {
	m, err := NewMap(Entry{Key: Int(1), Value: NewKey(uref.NewHashKey(uref.Hash{}))})
	require.NoError(t, err)

	_, err = ToNamedKeys(m)
	require.True(t, xerrors.Is(err, ErrDeserialization))
	require.EqualError(t, err, "named key is Int: deserialization error")

	m, err = NewMap(Entry{Key: String("a"), Value: Int(1)})
	require.NoError(t, err)

	_, err = ToNamedKeys(m)
	require.EqualError(t, err, "target of 'a' is Int: deserialization error")

	_, err = FromNamedKeys(uref.NamedKeys{})
	require.NoError(t, err)
}
