// Package value defines the values that cross the boundary between the host
// and the contracts: stored values, arguments and return values.
//
// Every value has a canonical binary form so that the same logical value always
// encodes to the same bytes, which allows content hashing.
package value

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"go.dedis.ch/capvm/core/uref"
	"golang.org/x/xerrors"
)

// Kind is the semantic type of a value.
type Kind byte

const (
	// KindAny is only used when decoding to accept any kind.
	KindAny Kind = iota
	KindUnit
	KindBool
	KindInt
	KindString
	KindBytes
	KindList
	KindMap
	KindTuple
	KindOption
	KindKey
)

var kindNames = map[Kind]string{
	KindAny:    "Any",
	KindUnit:   "Unit",
	KindBool:   "Bool",
	KindInt:    "Int",
	KindString: "String",
	KindBytes:  "Bytes",
	KindList:   "List",
	KindMap:    "Map",
	KindTuple:  "Tuple",
	KindOption: "Option",
	KindKey:    "Key",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	name, found := kindNames[k]
	if !found {
		return fmt.Sprintf("Kind(%d)", byte(k))
	}

	return name
}

// Value is the interface implemented by every value.
type Value interface {
	Kind() Kind

	String() string
}

// Unit is the empty value returned by entry points that do not return
// anything.
type Unit struct{}

// Kind implements value.Value.
func (Unit) Kind() Kind { return KindUnit }

func (Unit) String() string { return "()" }

// Bool is a boolean value.
type Bool bool

// Kind implements value.Value.
func (Bool) Kind() Kind { return KindBool }

func (b Bool) String() string { return fmt.Sprint(bool(b)) }

// Int is a signed 64-bit integer value.
type Int int64

// Kind implements value.Value.
func (Int) Kind() Kind { return KindInt }

func (i Int) String() string { return fmt.Sprint(int64(i)) }

// String is a UTF-8 string value.
type String string

// Kind implements value.Value.
func (String) Kind() Kind { return KindString }

func (s String) String() string { return fmt.Sprintf("%q", string(s)) }

// Bytes is an opaque byte sequence value.
type Bytes []byte

// Kind implements value.Value.
func (Bytes) Kind() Kind { return KindBytes }

func (b Bytes) String() string { return fmt.Sprintf("0x%x", []byte(b)) }

// List is a sequence of values.
type List []Value

// Kind implements value.Value.
func (List) Kind() Kind { return KindList }

func (l List) String() string { return "[" + join(l) + "]" }

// Strings returns a list of string values.
func Strings(strs ...string) List {
	l := make(List, len(strs))
	for i, s := range strs {
		l[i] = String(s)
	}

	return l
}

// Tuple is a fixed composite of values, such as an argument list or a struct.
type Tuple []Value

// Kind implements value.Value.
func (Tuple) Kind() Kind { return KindTuple }

func (t Tuple) String() string { return "(" + join(t) + ")" }

// Option is a value that may be absent.
type Option struct {
	v Value
}

// Some returns an option holding the value.
func Some(v Value) Option {
	return Option{v: v}
}

// None returns an empty option.
func None() Option {
	return Option{}
}

// Kind implements value.Value.
func (Option) Kind() Kind { return KindOption }

// Get returns the inner value and true, or false when the option is empty.
func (o Option) Get() (Value, bool) {
	return o.v, o.v != nil
}

func (o Option) String() string {
	if o.v == nil {
		return "None"
	}

	return "Some(" + o.v.String() + ")"
}

// Key is a value holding either a reference or a contract identity.
type Key struct {
	uref.Key
}

// NewKey returns the value for the key.
func NewKey(k uref.Key) Key {
	return Key{Key: k}
}

// NewURef returns the value for the reference.
func NewURef(u uref.URef) Key {
	return Key{Key: uref.NewURefKey(u)}
}

// Kind implements value.Value.
func (Key) Kind() Kind { return KindKey }

// Entry is a key/value pair of a map.
type Entry struct {
	Key   Value
	Value Value
}

// Map is a mapping between values. The entries are kept in the canonical order
// of their encoded keys, and a key appears at most once.
type Map struct {
	entries []Entry
}

// NewMap returns a map of the entries. When a key appears multiple times, the
// last entry wins.
func NewMap(entries ...Entry) (Map, error) {
	m := Map{}

	for _, e := range entries {
		var err error

		m, err = m.With(e.Key, e.Value)
		if err != nil {
			return Map{}, err
		}
	}

	return m, nil
}

// Kind implements value.Value.
func (Map) Kind() Kind { return KindMap }

// Len returns the number of entries.
func (m Map) Len() int {
	return len(m.entries)
}

// Entries returns a copy of the entries in canonical order.
func (m Map) Entries() []Entry {
	return append([]Entry{}, m.entries...)
}

// Get returns the value associated with the key.
func (m Map) Get(key Value) (Value, bool) {
	k, err := Encode(key)
	if err != nil {
		return nil, false
	}

	i, found := m.search(k)
	if !found {
		return nil, false
	}

	return m.entries[i].Value, true
}

// With returns a copy of the map where the key is set to the value.
func (m Map) With(key, value Value) (Map, error) {
	k, err := Encode(key)
	if err != nil {
		return Map{}, xerrors.Errorf("invalid map key: %v", err)
	}

	entries := append([]Entry{}, m.entries...)

	i, found := m.search(k)
	if found {
		entries[i] = Entry{Key: key, Value: value}
	} else {
		entries = append(entries, Entry{})
		copy(entries[i+1:], entries[i:])
		entries[i] = Entry{Key: key, Value: value}
	}

	return Map{entries: entries}, nil
}

func (m Map) search(encodedKey []byte) (int, bool) {
	i := sort.Search(len(m.entries), func(i int) bool {
		k, _ := Encode(m.entries[i].Key)
		return bytes.Compare(k, encodedKey) >= 0
	})

	if i < len(m.entries) {
		k, _ := Encode(m.entries[i].Key)
		if bytes.Equal(k, encodedKey) {
			return i, true
		}
	}

	return i, false
}

func (m Map) String() string {
	parts := make([]string, len(m.entries))
	for i, e := range m.entries {
		parts[i] = e.Key.String() + ": " + e.Value.String()
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

// Equal returns true if both values have the same canonical form.
func Equal(a, b Value) bool {
	ea, err := Encode(a)
	if err != nil {
		return false
	}

	eb, err := Encode(b)
	if err != nil {
		return false
	}

	return bytes.Equal(ea, eb)
}

// Refs returns every reference reachable from the value.
func Refs(v Value) []uref.URef {
	var refs []uref.URef

	var walk func(Value)
	walk = func(v Value) {
		switch e := v.(type) {
		case Key:
			u, err := e.ToURef()
			if err == nil {
				refs = append(refs, u)
			}
		case List:
			for _, item := range e {
				walk(item)
			}
		case Tuple:
			for _, item := range e {
				walk(item)
			}
		case Option:
			inner, ok := e.Get()
			if ok {
				walk(inner)
			}
		case Map:
			for _, entry := range e.entries {
				walk(entry.Key)
				walk(entry.Value)
			}
		}
	}

	walk(v)

	return refs
}

func join(values []Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}

	return strings.Join(parts, ", ")
}
