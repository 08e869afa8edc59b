// Package counter implements a native module that stores a counter contract
// and lets other frames increment and read it.
package counter

import (
	"go.dedis.ch/capvm/core/execution"
	"go.dedis.ch/capvm/core/execution/native"
	"go.dedis.ch/capvm/core/uref"
	"go.dedis.ch/capvm/core/value"
	"golang.org/x/xerrors"
)

const (
	// ModuleName is the name of the module.
	ModuleName = "counter"

	// KeyCount is the name of the reference to the counter value in the named
	// keys of the stored contract.
	KeyCount = "count"

	// KeyCounter is the name of the stored contract in the named keys of the
	// account that deployed it.
	KeyCounter = "counter"

	// EntryExt is the entry point of the stored contract.
	EntryExt = "counter_ext"

	// MethodInc increments the counter.
	MethodInc = "inc"

	// MethodGet returns the counter.
	MethodGet = "get"
)

// RegisterContract registers the counter module to the given execution
// service.
func RegisterContract(exec *native.Service) {
	exec.Set(ModuleName, NewModule())
}

// NewModule returns the entry points of the module.
func NewModule() native.Module {
	return native.Module{
		execution.DefaultEntry: define,
		EntryExt:               counterExt,
		"bump":                 bump,
	}
}

// define mints the counter and stores the contract that owns it.
func define(ctx execution.Context) error {
	count, err := ctx.NewURef(value.Int(0))
	if err != nil {
		return err
	}

	keys := uref.NewNamedKeys()
	keys.Bind(KeyCount, uref.NewURefKey(count))

	hash, err := ctx.StoreFunction(EntryExt, keys)
	if err != nil {
		return err
	}

	return ctx.PutKey(KeyCounter, uref.NewHashKey(hash))
}

// counterExt dispatches the method given as the first argument.
func counterExt(ctx execution.Context) error {
	key, err := ctx.GetKey(KeyCount)
	if err != nil {
		return err
	}

	count, err := key.ToURef()
	if err != nil {
		return err
	}

	method, err := ctx.Args().String(0)
	if err != nil {
		return err
	}

	switch method {
	case MethodInc:
		return ctx.Add(count, value.Int(1))
	case MethodGet:
		v, err := ctx.Read(count)
		if err != nil {
			return err
		}

		return ctx.Ret(v)
	default:
		return xerrors.Errorf("method '%s': %w", method, execution.ErrUnknownEntryPoint)
	}
}

// bump increments the counter stored by the account and returns the new
// value. An optional method can be given to call instead of the increment.
func bump(ctx execution.Context) error {
	counter, err := ctx.GetKey(KeyCounter)
	if err != nil {
		return err
	}

	method := MethodInc
	if ctx.Args().Len() > 0 {
		method, err = ctx.Args().String(0)
		if err != nil {
			return err
		}
	}

	_, err = ctx.CallContract(counter, value.NewArgs(value.String(method)))
	if err != nil {
		return err
	}

	v, err := ctx.CallContract(counter, value.NewArgs(value.String(MethodGet)))
	if err != nil {
		return err
	}

	return ctx.Ret(v)
}
