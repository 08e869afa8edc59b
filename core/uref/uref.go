// Package uref defines the unforgeable references (URefs) that address the
// slots of the global state, alongside the keys and named-key maps that
// contracts use to remember them.
//
// A URef can only be produced by a Generator when minting, by attenuating an
// existing one, or by decoding it at the host boundary. The runtime refuses any
// reference that was not granted to the frame using it, so a decoded URef is
// worthless unless it was handed over by its owner.
package uref

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/xerrors"
)

// AddressSize is the size in bytes of a storage address.
const AddressSize = 32

// Size is the size of the binary form of a URef.
const Size = AddressSize + 1

// ErrInvalidRights is returned when trying to amplify the rights of a
// reference.
var ErrInvalidRights = xerrors.New("invalid rights")

// Address is the location of a slot in the global state.
type Address [AddressSize]byte

// String returns the hexadecimal form of the address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// URef is a capability over one slot of the global state. The address and the
// rights are not accessible for modification outside of this package.
type URef struct {
	addr   Address
	rights AccessRights
}

// Address returns the address of the slot.
func (u URef) Address() Address {
	return u.addr
}

// Rights returns the access rights carried by the reference.
func (u URef) Rights() AccessRights {
	return u.rights
}

// Attenuate returns a copy of the reference with the given rights. It returns
// an error if the rights are not a subset of the current ones.
func (u URef) Attenuate(rights AccessRights) (URef, error) {
	if !rights.Valid() || !rights.IsSubsetOf(u.rights) {
		return URef{}, xerrors.Errorf("%v is not a subset of %v: %w",
			rights, u.rights, ErrInvalidRights)
	}

	return URef{addr: u.addr, rights: rights}, nil
}

// RemoveRights returns the reference without any right. It is used to compare
// addresses.
func (u URef) RemoveRights() URef {
	return URef{addr: u.addr}
}

// Equal returns true when both the address and the rights match.
func (u URef) Equal(other URef) bool {
	return u.addr == other.addr && u.rights == other.rights
}

// MarshalBinary implements encoding.BinaryMarshaler. The address is followed by
// the rights byte.
func (u URef) MarshalBinary() ([]byte, error) {
	buf := make([]byte, Size)
	copy(buf, u.addr[:])
	buf[AddressSize] = byte(u.rights)

	return buf, nil
}

// String implements fmt.Stringer.
func (u URef) String() string {
	return fmt.Sprintf("uref-%s-%v", u.addr, u.rights)
}

// Unmarshal returns the reference for its binary form. A reference obtained
// this way must still be granted to the frame that uses it.
func Unmarshal(data []byte) (URef, error) {
	if len(data) != Size {
		return URef{}, xerrors.Errorf("invalid length %d != %d", len(data), Size)
	}

	rights := AccessRights(data[AddressSize])
	if !rights.Valid() {
		return URef{}, xerrors.Errorf("invalid rights byte %#x", data[AddressSize])
	}

	u := URef{rights: rights}
	copy(u.addr[:], data)

	return u, nil
}

// Generator mints fresh references. The sequence of addresses is deterministic
// for a given seed, which is usually the hash of the deployment.
type Generator struct {
	seed    []byte
	counter uint64
}

// NewGenerator returns a generator for the seed.
func NewGenerator(seed []byte) *Generator {
	return &Generator{
		seed: append([]byte{}, seed...),
	}
}

// Mint returns a new reference with full rights on an address that has never
// been returned by this generator.
func (g *Generator) Mint() URef {
	counter := make([]byte, 8)
	binary.LittleEndian.PutUint64(counter, g.counter)
	g.counter++

	h, err := blake2b.New256(nil)
	if err != nil {
		// Only fails with an invalid key, which is never set.
		panic(err)
	}

	h.Write(g.seed)
	h.Write(counter)

	u := URef{rights: ReadAddWrite}
	copy(u.addr[:], h.Sum(nil))

	return u
}

// Count returns the number of references minted so far.
func (g *Generator) Count() uint64 {
	return g.counter
}

