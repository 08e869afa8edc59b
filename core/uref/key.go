package uref

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/xerrors"
)

// HashSize is the size of a contract identity.
const HashSize = 32

// Hash is the content hash identifying a registered contract.
type Hash [HashSize]byte

// String returns the hexadecimal form of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// KeyType defines what a key points to.
type KeyType byte

const (
	// KeyTypeURef is the type of a key holding a reference.
	KeyTypeURef KeyType = 1

	// KeyTypeHash is the type of a key holding a contract identity.
	KeyTypeHash KeyType = 2
)

var (
	// ErrNotURef is returned when a key is expected to be a reference.
	ErrNotURef = xerrors.New("key is not a reference")

	// ErrNotHash is returned when a key is expected to be a contract identity.
	ErrNotHash = xerrors.New("key is not a contract hash")
)

// Key is the target of a named key. It is either a reference to a slot of the
// global state or the identity of a registered contract.
type Key struct {
	typ  KeyType
	uref URef
	hash Hash
}

// NewURefKey returns a key wrapping the reference.
func NewURefKey(u URef) Key {
	return Key{typ: KeyTypeURef, uref: u}
}

// NewHashKey returns a key wrapping the contract identity.
func NewHashKey(h Hash) Key {
	return Key{typ: KeyTypeHash, hash: h}
}

// Type returns the type of the key.
func (k Key) Type() KeyType {
	return k.typ
}

// ToURef returns the reference of the key, or an error if the key is not a
// reference.
func (k Key) ToURef() (URef, error) {
	if k.typ != KeyTypeURef {
		return URef{}, xerrors.Errorf("%v: %w", k, ErrNotURef)
	}

	return k.uref, nil
}

// ToHash returns the contract identity of the key, or an error if the key is
// not a contract hash.
func (k Key) ToHash() (Hash, error) {
	if k.typ != KeyTypeHash {
		return Hash{}, xerrors.Errorf("%v: %w", k, ErrNotHash)
	}

	return k.hash, nil
}

// Equal returns true if both keys point to the same target with the same
// rights.
func (k Key) Equal(other Key) bool {
	if k.typ != other.typ {
		return false
	}

	switch k.typ {
	case KeyTypeURef:
		return k.uref.Equal(other.uref)
	case KeyTypeHash:
		return k.hash == other.hash
	default:
		return true
	}
}

// MarshalBinary implements encoding.BinaryMarshaler. The type byte is followed
// by the binary form of the target.
func (k Key) MarshalBinary() ([]byte, error) {
	switch k.typ {
	case KeyTypeURef:
		data, _ := k.uref.MarshalBinary()
		return append([]byte{byte(k.typ)}, data...), nil
	case KeyTypeHash:
		return append([]byte{byte(k.typ)}, k.hash[:]...), nil
	default:
		return nil, xerrors.Errorf("unknown key type %d", k.typ)
	}
}

// String implements fmt.Stringer.
func (k Key) String() string {
	switch k.typ {
	case KeyTypeURef:
		return k.uref.String()
	case KeyTypeHash:
		return fmt.Sprintf("hash-%v", k.hash)
	default:
		return "key-empty"
	}
}

// UnmarshalKey returns the key for its binary form. It returns the number of
// bytes consumed.
func UnmarshalKey(data []byte) (Key, int, error) {
	if len(data) == 0 {
		return Key{}, 0, xerrors.New("empty key")
	}

	switch KeyType(data[0]) {
	case KeyTypeURef:
		if len(data) < 1+Size {
			return Key{}, 0, xerrors.Errorf("truncated reference: %d bytes", len(data))
		}

		u, err := Unmarshal(data[1 : 1+Size])
		if err != nil {
			return Key{}, 0, xerrors.Errorf("failed to unmarshal reference: %v", err)
		}

		return NewURefKey(u), 1 + Size, nil
	case KeyTypeHash:
		if len(data) < 1+HashSize {
			return Key{}, 0, xerrors.Errorf("truncated hash: %d bytes", len(data))
		}

		var h Hash
		copy(h[:], data[1:1+HashSize])

		return NewHashKey(h), 1 + HashSize, nil
	default:
		return Key{}, 0, xerrors.Errorf("unknown key type %d", data[0])
	}
}
