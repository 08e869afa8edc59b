package uref

import (
	"strings"
)

// AccessRights is the mask of the operations a reference allows on the slot it
// addresses.
type AccessRights uint8

const (
	// None is the empty set of rights.
	None AccessRights = 0

	// Read allows to read the slot.
	Read AccessRights = 0b001

	// Write allows to overwrite the slot.
	Write AccessRights = 0b010

	// Add allows to merge a value into the slot.
	Add AccessRights = 0b100

	// ReadWrite is the union of Read and Write.
	ReadWrite = Read | Write

	// ReadAdd is the union of Read and Add.
	ReadAdd = Read | Add

	// AddWrite is the union of Add and Write.
	AddWrite = Add | Write

	// ReadAddWrite is the full set of rights given when minting.
	ReadAddWrite = Read | Add | Write
)

// Valid returns true if the mask only contains known rights.
func (r AccessRights) Valid() bool {
	return r&^ReadAddWrite == 0
}

// Contains returns true if every right of other is in r.
func (r AccessRights) Contains(other AccessRights) bool {
	return r&other == other
}

// IsSubsetOf returns true if every right of r is in other.
func (r AccessRights) IsSubsetOf(other AccessRights) bool {
	return other.Contains(r)
}

// String returns a human readable form of the mask, such as READ_ADD.
func (r AccessRights) String() string {
	if r == None {
		return "NONE"
	}

	parts := make([]string, 0, 3)

	if r.Contains(Read) {
		parts = append(parts, "READ")
	}
	if r.Contains(Add) {
		parts = append(parts, "ADD")
	}
	if r.Contains(Write) {
		parts = append(parts, "WRITE")
	}

	return strings.Join(parts, "_")
}
