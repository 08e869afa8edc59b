package value

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/capvm/core/uref"
	"golang.org/x/xerrors"
)

func TestArgs_Get(t *testing.T) {
	key := uref.NewHashKey(uref.Hash{1})
	args := NewArgs(String("inc"), Int(3), NewKey(key))

	str, err := args.String(0)
	require.NoError(t, err)
	require.Equal(t, "inc", str)

	n, err := args.Int(1)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	k, err := args.Key(2)
	require.NoError(t, err)
	require.True(t, key.Equal(k))

	_, err = args.Int(0)
	require.True(t, xerrors.Is(err, ErrArgumentType))
	require.EqualError(t, err, "argument 0 is String, expected Int: argument type mismatch")

	_, err = args.String(3)
	require.True(t, xerrors.Is(err, ErrArgumentMissing))
	require.EqualError(t, err, "index 3 out of 3: argument missing")

	_, err = args.Get(-1, KindAny)
	require.True(t, xerrors.Is(err, ErrArgumentMissing))

	v, err := args.Get(1, KindAny)
	require.NoError(t, err)
	require.Equal(t, Int(3), v)
}

func TestArgs_Encoding(t *testing.T) {
	args := NewArgs(String("pub"), String("hi"))

	data, err := EncodeArgs(args)
	require.NoError(t, err)

	res, err := DecodeArgs(data)
	require.NoError(t, err)
	require.Equal(t, 2, res.Len())

	msg, err := res.String(1)
	require.NoError(t, err)
	require.Equal(t, "hi", msg)

	_, err = DecodeArgs(data[:3])
	require.True(t, xerrors.Is(err, ErrDeserialization))

	single, err := Encode(String("x"))
	require.NoError(t, err)

	_, err = DecodeArgs(single)
	require.True(t, xerrors.Is(err, ErrDeserialization))
}
