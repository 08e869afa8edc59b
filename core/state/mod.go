// Package state implements the global state that contracts access through
// references.
//
// Values are stored in their canonical form under the address of the
// reference, inside the "value" namespace of the underlying snapshot. Every
// access checks that the reference carries the right for the operation.
//
// Writes are applied to the snapshot immediately. A Journal placed under the
// state keeps the undo log of each open level so that a trapped frame can
// revert its own writes while the writes of nested calls that already
// returned are kept.
package state

import (
	"math"

	"go.dedis.ch/capvm/core/store"
	"go.dedis.ch/capvm/core/store/prefixed"
	"go.dedis.ch/capvm/core/uref"
	"go.dedis.ch/capvm/core/value"
	"golang.org/x/xerrors"
)

// Prefix is the namespace of the values in the snapshot.
const Prefix = "value"

var (
	// ErrPermissionDenied is returned when the reference does not carry the
	// right needed by the operation.
	ErrPermissionDenied = xerrors.New("permission denied")

	// ErrNotFound is returned when reading a slot that was never written.
	ErrNotFound = xerrors.New("value not found")

	// ErrTypeMismatch is returned when the stored value cannot be merged with
	// the supplied one.
	ErrTypeMismatch = xerrors.New("type mismatch")

	// ErrOverflow is returned when an integer addition overflows.
	ErrOverflow = xerrors.New("integer overflow")
)

// State is the global state accessed through references.
type State struct {
	snap store.Snapshot
}

// NewState returns the state stored in the snapshot.
func NewState(snap store.Snapshot) *State {
	return &State{
		snap: prefixed.NewSnapshot(Prefix, snap),
	}
}

// Mint allocates a fresh slot with the generator, writes the initial value and
// returns the reference with full rights.
func (s *State) Mint(gen *uref.Generator, initial value.Value) (uref.URef, error) {
	ref := gen.Mint()

	err := s.Write(ref, initial)
	if err != nil {
		return uref.URef{}, xerrors.Errorf("failed to write initial value: %w", err)
	}

	return ref, nil
}

// Read returns the value of the slot. The reference must carry the read right.
func (s *State) Read(ref uref.URef) (value.Value, error) {
	if !ref.Rights().Contains(uref.Read) {
		return nil, xerrors.Errorf("read %v: %w", ref, ErrPermissionDenied)
	}

	return s.load(ref)
}

// Write overwrites the value of the slot. The reference must carry the write
// right.
func (s *State) Write(ref uref.URef, v value.Value) error {
	if !ref.Rights().Contains(uref.Write) {
		return xerrors.Errorf("write %v: %w", ref, ErrPermissionDenied)
	}

	return s.store(ref, v)
}

// Add merges the value into the slot. Integers are summed and maps are joined,
// the supplied entries overriding the stored ones. The reference must carry the
// add right.
func (s *State) Add(ref uref.URef, v value.Value) error {
	if !ref.Rights().Contains(uref.Add) {
		return xerrors.Errorf("add %v: %w", ref, ErrPermissionDenied)
	}

	current, err := s.load(ref)
	if err != nil {
		return err
	}

	merged, err := merge(current, v)
	if err != nil {
		return xerrors.Errorf("add %v: %w", ref, err)
	}

	return s.store(ref, merged)
}

func (s *State) load(ref uref.URef) (value.Value, error) {
	addr := ref.Address()

	data, err := s.snap.Get(addr[:])
	if err != nil {
		return nil, xerrors.Errorf("failed to read store: %v", err)
	}

	if data == nil {
		return nil, xerrors.Errorf("slot %v: %w", addr, ErrNotFound)
	}

	v, err := value.Decode(data, value.KindAny)
	if err != nil {
		return nil, xerrors.Errorf("slot %v: %w", addr, err)
	}

	return v, nil
}

func (s *State) store(ref uref.URef, v value.Value) error {
	data, err := value.Encode(v)
	if err != nil {
		return xerrors.Errorf("slot %v: %v", ref.Address(), err)
	}

	addr := ref.Address()

	err = s.snap.Set(addr[:], data)
	if err != nil {
		return xerrors.Errorf("failed to write store: %v", err)
	}

	return nil
}

func merge(current, v value.Value) (value.Value, error) {
	if v == nil {
		return nil, xerrors.New("nil value")
	}

	switch cur := current.(type) {
	case value.Int:
		incr, ok := v.(value.Int)
		if !ok {
			break
		}

		if (incr > 0 && cur > math.MaxInt64-incr) || (incr < 0 && cur < math.MinInt64-incr) {
			return nil, xerrors.Errorf("%v + %v: %w", cur, incr, ErrOverflow)
		}

		return cur + incr, nil
	case value.Map:
		other, ok := v.(value.Map)
		if !ok {
			break
		}

		res := cur
		for _, e := range other.Entries() {
			var err error

			res, err = res.With(e.Key, e.Value)
			if err != nil {
				return nil, err
			}
		}

		return res, nil
	}

	return nil, xerrors.Errorf("cannot add %v to %v: %w",
		v.Kind(), current.Kind(), ErrTypeMismatch)
}
