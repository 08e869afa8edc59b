package execution

import (
	"go.dedis.ch/capvm/core/store"
	"go.dedis.ch/capvm/core/store/prefixed"
	"go.dedis.ch/capvm/core/uref"
	"go.dedis.ch/capvm/core/value"
	"golang.org/x/xerrors"
)

// AccountPrefix is the namespace of the accounts in the snapshot.
const AccountPrefix = "account"

// account is the persistent state of an account: the number of deployments
// it ran and its named keys.
type account struct {
	nonce int64
	keys  uref.NamedKeys
}

func loadAccount(snap store.Readable, name string) (account, error) {
	data, err := prefixed.NewReadable(AccountPrefix, snap).Get([]byte(name))
	if err != nil {
		return account{}, xerrors.Errorf("failed to read store: %v", err)
	}

	if data == nil {
		return account{keys: uref.NewNamedKeys()}, nil
	}

	v, err := value.Decode(data, value.KindTuple)
	if err != nil {
		return account{}, xerrors.Errorf("failed to decode account: %w", err)
	}

	args := value.Args(v.(value.Tuple))

	nonce, err := args.Int(0)
	if err != nil {
		return account{}, xerrors.Errorf("nonce: %v: %w", err, value.ErrDeserialization)
	}

	m, err := args.Get(1, value.KindMap)
	if err != nil {
		return account{}, xerrors.Errorf("named keys: %v: %w", err, value.ErrDeserialization)
	}

	keys, err := value.ToNamedKeys(m.(value.Map))
	if err != nil {
		return account{}, xerrors.Errorf("failed to decode account: %w", err)
	}

	return account{nonce: nonce, keys: keys}, nil
}

func saveAccount(snap store.Snapshot, name string, acc account) error {
	m, err := value.FromNamedKeys(acc.keys)
	if err != nil {
		return xerrors.Errorf("invalid named keys: %v", err)
	}

	data, err := value.Encode(value.Tuple{value.Int(acc.nonce), m})
	if err != nil {
		return xerrors.Errorf("failed to encode account: %v", err)
	}

	err = prefixed.NewSnapshot(AccountPrefix, snap).Set([]byte(name), data)
	if err != nil {
		return xerrors.Errorf("failed to write store: %v", err)
	}

	return nil
}
