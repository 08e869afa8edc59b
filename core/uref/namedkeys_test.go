package uref

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestNamedKeys_BindResolve(t *testing.T) {
	nk := NewNamedKeys()

	_, err := nk.Resolve("absent")
	require.True(t, xerrors.Is(err, ErrUnboundName))
	require.EqualError(t, err, "name 'absent': unbound name")

	gen := NewGenerator(nil)
	a := NewURefKey(gen.Mint())
	b := NewHashKey(Hash{2})

	nk.Bind("a", a)
	res, err := nk.Resolve("a")
	require.NoError(t, err)
	require.True(t, a.Equal(res))

	nk.Bind("a", b)
	res, err = nk.Resolve("a")
	require.NoError(t, err)
	require.True(t, b.Equal(res))
	require.Equal(t, 1, nk.Len())

	nk.Remove("a")
	require.False(t, nk.Has("a"))

	var empty NamedKeys
	require.False(t, empty.Has("a"))
	require.Empty(t, empty.Names())

	_, err = empty.Resolve("a")
	require.True(t, xerrors.Is(err, ErrUnboundName))

	empty.Remove("a")
	require.PanicsWithValue(t, "binding a name in a read-only map", func() {
		empty.Bind("a", a)
	})
}

func TestNamedKeys_Order(t *testing.T) {
	nk := NewNamedKeys()
	nk.Bind("zeta", NewHashKey(Hash{1}))
	nk.Bind("alpha", NewHashKey(Hash{2}))
	nk.Bind("mid", NewHashKey(Hash{3}))

	require.Equal(t, []string{"zeta", "alpha", "mid"}, nk.Names())
	require.Len(t, nk.Keys(), 3)
	require.True(t, NewHashKey(Hash{2}).Equal(nk.Keys()[1]))
}

func TestNamedKeys_Clone(t *testing.T) {
	nk := NewNamedKeys()
	nk.Bind("a", NewHashKey(Hash{1}))

	clone := nk.Clone()
	require.True(t, nk.Equal(clone))

	clone.Bind("b", NewHashKey(Hash{2}))
	require.False(t, nk.Has("b"))
	require.False(t, nk.Equal(clone))

	other := NewNamedKeys()
	other.Bind("a", NewHashKey(Hash{9}))
	require.False(t, nk.Equal(other))
}
