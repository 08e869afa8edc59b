package value

import (
	"go.dedis.ch/capvm/core/uref"
	"golang.org/x/xerrors"
)

var (
	// ErrArgumentMissing is returned when an argument index is out of range.
	ErrArgumentMissing = xerrors.New("argument missing")

	// ErrArgumentType is returned when an argument is not of the declared
	// kind.
	ErrArgumentType = xerrors.New("argument type mismatch")
)

// Args is the ordered list of arguments passed to an entry point. Arguments are
// accessed by position with an explicit kind.
type Args []Value

// NewArgs returns the argument list of the values.
func NewArgs(values ...Value) Args {
	return Args(values)
}

// EncodeArgs returns the canonical form of the argument list.
func EncodeArgs(args Args) ([]byte, error) {
	return Encode(Tuple(args))
}

// DecodeArgs decodes an argument list produced by EncodeArgs.
func DecodeArgs(data []byte) (Args, error) {
	v, err := Decode(data, KindTuple)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode arguments: %w", err)
	}

	return Args(v.(Tuple)), nil
}

// Len returns the number of arguments.
func (a Args) Len() int {
	return len(a)
}

// Get returns the argument at the index if it is of the expected kind. KindAny
// accepts any kind.
func (a Args) Get(index int, expected Kind) (Value, error) {
	if index < 0 || index >= len(a) {
		return nil, xerrors.Errorf("index %d out of %d: %w", index, len(a), ErrArgumentMissing)
	}

	v := a[index]
	if expected != KindAny && v.Kind() != expected {
		return nil, xerrors.Errorf("argument %d is %v, expected %v: %w",
			index, v.Kind(), expected, ErrArgumentType)
	}

	return v, nil
}

// String returns the string argument at the index.
func (a Args) String(index int) (string, error) {
	v, err := a.Get(index, KindString)
	if err != nil {
		return "", err
	}

	return string(v.(String)), nil
}

// Int returns the integer argument at the index.
func (a Args) Int(index int) (int64, error) {
	v, err := a.Get(index, KindInt)
	if err != nil {
		return 0, err
	}

	return int64(v.(Int)), nil
}

// Key returns the key argument at the index.
func (a Args) Key(index int) (uref.Key, error) {
	v, err := a.Get(index, KindKey)
	if err != nil {
		return uref.Key{}, err
	}

	return v.(Key).Key, nil
}
