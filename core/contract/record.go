package contract

import (
	"go.dedis.ch/capvm/core/uref"
	"go.dedis.ch/capvm/core/value"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/xerrors"
)

// Record is a registered contract: the module providing the code, the entry
// point to run and the named keys captured at registration time.
type Record struct {
	// Module is the handle of the code, as known by the execution service.
	Module string

	// EntryPoint is the name of the function of the module to run.
	EntryPoint string

	// NamedKeys is the base environment of every invocation.
	NamedKeys uref.NamedKeys
}

// Equal returns true if both records are the same.
func (r Record) Equal(other Record) bool {
	return r.Module == other.Module &&
		r.EntryPoint == other.EntryPoint &&
		r.NamedKeys.Equal(other.NamedKeys)
}

// Value returns the record as a value. The named keys are encoded as a map so
// that the insertion order does not change the identity.
func (r Record) Value() (value.Value, error) {
	keys, err := value.FromNamedKeys(r.NamedKeys)
	if err != nil {
		return nil, err
	}

	return value.Tuple{
		value.String(r.Module),
		value.String(r.EntryPoint),
		keys,
	}, nil
}

// Identity returns the content hash of the record and its canonical form.
func Identity(r Record) (uref.Hash, []byte, error) {
	v, err := r.Value()
	if err != nil {
		return uref.Hash{}, nil, xerrors.Errorf("invalid record: %v", err)
	}

	data, err := value.Encode(v)
	if err != nil {
		return uref.Hash{}, nil, xerrors.Errorf("failed to encode record: %v", err)
	}

	return uref.Hash(blake2b.Sum256(data)), data, nil
}

// decodeRecord returns the record of its canonical form.
func decodeRecord(data []byte) (Record, error) {
	v, err := value.Decode(data, value.KindTuple)
	if err != nil {
		return Record{}, err
	}

	tuple := v.(value.Tuple)
	if len(tuple) != 3 {
		return Record{}, xerrors.Errorf("record has %d fields: %w",
			len(tuple), value.ErrDeserialization)
	}

	args := value.Args(tuple)

	module, err := args.String(0)
	if err != nil {
		return Record{}, xerrors.Errorf("module: %v: %w", err, value.ErrDeserialization)
	}

	entry, err := args.String(1)
	if err != nil {
		return Record{}, xerrors.Errorf("entry point: %v: %w", err, value.ErrDeserialization)
	}

	keys, err := args.Get(2, value.KindMap)
	if err != nil {
		return Record{}, xerrors.Errorf("named keys: %v: %w", err, value.ErrDeserialization)
	}

	nk, err := value.ToNamedKeys(keys.(value.Map))
	if err != nil {
		return Record{}, err
	}

	return Record{
		Module:     module,
		EntryPoint: entry,
		NamedKeys:  nk,
	}, nil
}
