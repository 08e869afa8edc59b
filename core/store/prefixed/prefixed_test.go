package prefixed

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/capvm/core/store/mem"
)

func TestSnapshot_Namespaces(t *testing.T) {
	base := mem.NewSnapshot()

	values := NewSnapshot("value", base)
	contracts := NewSnapshot("contract", base)

	require.NoError(t, values.Set([]byte("A"), []byte{1}))

	res, err := values.Get([]byte("A"))
	require.NoError(t, err)
	require.Equal(t, []byte{1}, res)

	res, err = contracts.Get([]byte("A"))
	require.NoError(t, err)
	require.Nil(t, res)

	res, err = base.Get(NewPrefixedKey([]byte("value"), []byte("A")))
	require.NoError(t, err)
	require.Equal(t, []byte{1}, res)

	res, err = NewReadable("value", base).Get([]byte("A"))
	require.NoError(t, err)
	require.Equal(t, []byte{1}, res)

	require.NoError(t, values.Delete([]byte("A")))

	res, err = values.Get([]byte("A"))
	require.NoError(t, err)
	require.Nil(t, res)
}

func TestNewPrefixedKey(t *testing.T) {
	key := NewPrefixedKey([]byte("ab"), []byte("c"))
	require.Len(t, key, 32)

	// Length prefixes avoid ambiguous concatenations.
	require.NotEqual(t, key, NewPrefixedKey([]byte("a"), []byte("bc")))
	require.Equal(t, key, NewPrefixedKey([]byte("ab"), []byte("c")))
}
