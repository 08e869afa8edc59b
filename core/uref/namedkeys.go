package uref

import (
	"github.com/iancoleman/orderedmap"
	"golang.org/x/xerrors"
)

// ErrUnboundName is returned when resolving a name that is not bound.
var ErrUnboundName = xerrors.New("unbound name")

// NamedKeys is the private map of a contract from names to keys. Lookups do
// not depend on the order, but iteration follows the insertion order. The zero
// value is an empty read-only map: binding a name requires a map created with
// NewNamedKeys.
type NamedKeys struct {
	keys *orderedmap.OrderedMap
}

// NewNamedKeys returns an empty map.
func NewNamedKeys() NamedKeys {
	return NamedKeys{
		keys: orderedmap.New(),
	}
}

// Bind binds the name to the key, overwriting any previous binding. It panics
// on the zero value.
func (nk NamedKeys) Bind(name string, key Key) {
	if nk.keys == nil {
		panic("binding a name in a read-only map")
	}

	nk.keys.Set(name, key)
}

// Resolve returns the key bound to the name.
func (nk NamedKeys) Resolve(name string) (Key, error) {
	if nk.keys == nil {
		return Key{}, xerrors.Errorf("name '%s': %w", name, ErrUnboundName)
	}

	v, found := nk.keys.Get(name)
	if !found {
		return Key{}, xerrors.Errorf("name '%s': %w", name, ErrUnboundName)
	}

	return v.(Key), nil
}

// Has returns true if the name is bound.
func (nk NamedKeys) Has(name string) bool {
	if nk.keys == nil {
		return false
	}

	_, found := nk.keys.Get(name)
	return found
}

// Remove removes the binding of the name if any.
func (nk NamedKeys) Remove(name string) {
	if nk.keys == nil {
		return
	}

	nk.keys.Delete(name)
}

// Names returns the bound names in insertion order.
func (nk NamedKeys) Names() []string {
	if nk.keys == nil {
		return nil
	}

	return nk.keys.Keys()
}

// Keys returns the bound keys in insertion order.
func (nk NamedKeys) Keys() []Key {
	names := nk.Names()
	keys := make([]Key, len(names))

	for i, name := range names {
		v, _ := nk.keys.Get(name)
		keys[i] = v.(Key)
	}

	return keys
}

// Len returns the number of bindings.
func (nk NamedKeys) Len() int {
	return len(nk.Names())
}

// Clone returns a deep copy of the map. Changes to the copy are not visible in
// the original.
func (nk NamedKeys) Clone() NamedKeys {
	clone := NewNamedKeys()

	for _, name := range nk.Names() {
		v, _ := nk.keys.Get(name)
		clone.keys.Set(name, v)
	}

	return clone
}

// Equal returns true if both maps have the same bindings, regardless of the
// order.
func (nk NamedKeys) Equal(other NamedKeys) bool {
	if nk.Len() != other.Len() {
		return false
	}

	for _, name := range nk.Names() {
		a, _ := nk.Resolve(name)

		b, err := other.Resolve(name)
		if err != nil || !a.Equal(b) {
			return false
		}
	}

	return true
}
