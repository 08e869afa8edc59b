package value

import (
	"go.dedis.ch/capvm/core/uref"
	"golang.org/x/xerrors"
)

// FromNamedKeys returns the map of the names to their keys. The map does not
// depend on the order of the bindings.
func FromNamedKeys(nk uref.NamedKeys) (Map, error) {
	m := Map{}

	for _, name := range nk.Names() {
		key, err := nk.Resolve(name)
		if err != nil {
			return Map{}, err
		}

		m, err = m.With(String(name), NewKey(key))
		if err != nil {
			return Map{}, err
		}
	}

	return m, nil
}

// ToNamedKeys returns the named keys of a map produced by FromNamedKeys.
func ToNamedKeys(m Map) (uref.NamedKeys, error) {
	nk := uref.NewNamedKeys()

	for _, e := range m.Entries() {
		name, ok := e.Key.(String)
		if !ok {
			return nk, xerrors.Errorf("named key is %v: %w",
				e.Key.Kind(), ErrDeserialization)
		}

		key, ok := e.Value.(Key)
		if !ok {
			return nk, xerrors.Errorf("target of '%s' is %v: %w",
				name, e.Value.Kind(), ErrDeserialization)
		}

		nk.Bind(string(name), key.Key)
	}

	return nk, nil
}
