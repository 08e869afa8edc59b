// Package execution defines the invocation engine that runs contract entry
// points in call frames.
//
// A frame only holds the references it was granted: the named keys of the
// account or of the stored contract, the references found in its arguments,
// the extra references passed by the caller, and the ones it mints, derives,
// reads or receives from nested calls. Any other reference is rejected as
// forged.
//
// Documentation Last Review: 19.10.2026
package execution

import (
	"github.com/rs/zerolog"
	"go.dedis.ch/capvm/core/uref"
	"go.dedis.ch/capvm/core/value"
)

// EntryPoint is a function of a module that runs inside a frame. Returning an
// error traps the frame.
type EntryPoint func(ctx Context) error

// Module is the code of a contract.
type Module interface {
	// EntryPoint returns the function for the name if it exists.
	EntryPoint(name string) (EntryPoint, bool)
}

// Service is the code service that resolves a module name to its code.
type Service interface {
	// Get returns the module for the name, or an error if it is unknown.
	Get(name string) (Module, error)
}

// Context is the host interface exposed to an entry point. It is bound to
// the frame and must not be used after the entry point returned.
type Context interface {
	// Depth returns the depth of the frame, zero being the deployment.
	Depth() int

	// Args returns the arguments of the frame.
	Args() value.Args

	// GetArg returns the argument at the index if it has the expected kind.
	GetArg(index int, expected value.Kind) (value.Value, error)

	// NewURef allocates a new slot holding the initial value and returns a
	// reference with full rights.
	NewURef(initial value.Value) (uref.URef, error)

	// Attenuate returns a copy of the reference restricted to the rights.
	Attenuate(ref uref.URef, rights uref.AccessRights) (uref.URef, error)

	// Read returns the value behind the reference.
	Read(ref uref.URef) (value.Value, error)

	// Write replaces the value behind the reference.
	Write(ref uref.URef, v value.Value) error

	// Add merges the value into the one behind the reference.
	Add(ref uref.URef, v value.Value) error

	// PutKey binds the key to the name in the frame's named keys.
	PutKey(name string, key uref.Key) error

	// GetKey resolves the name in the frame's named keys.
	GetKey(name string) (uref.Key, error)

	// HasKey returns true if the name is bound.
	HasKey(name string) (bool, error)

	// RemoveKey unbinds the name if it exists.
	RemoveKey(name string) error

	// NamedKeys returns a copy of the frame's named keys.
	NamedKeys() uref.NamedKeys

	// StoreFunction registers the entry point of the frame's module with the
	// named keys and returns its identity.
	StoreFunction(entry string, keys uref.NamedKeys) (uref.Hash, error)

	// CallContract runs the registered entry point of the contract.
	CallContract(key uref.Key, args value.Args, extra ...uref.URef) (value.Value, error)

	// Invoke runs the selected entry point of the contract module with the
	// named keys of the contract. An empty selector uses the registered one.
	// Any entry point of the module can be selected, and each of them sees the
	// named keys captured by the contract: a module must not expose an entry
	// point that leaks them.
	Invoke(key uref.Key, entry string, args value.Args, extra ...uref.URef) (value.Value, error)

	// Ret sets the value returned to the caller alongside extra references
	// that are granted to it.
	Ret(v value.Value, extra ...uref.URef) error

	// Revert returns the error that an entry point returns to fail with a
	// user code.
	Revert(code uint32) error

	// Logger returns the logger of the frame.
	Logger() zerolog.Logger
}

// FrameState is the state of a call frame.
type FrameState int

const (
	// FrameCreated is the state of a frame not yet started.
	FrameCreated FrameState = iota
	// FrameRunning is the state of a frame executing its entry point.
	FrameRunning
	// FrameReturned is the state of a frame that completed.
	FrameReturned
	// FrameTrapped is the state of a frame that failed.
	FrameTrapped
)

func (s FrameState) String() string {
	switch s {
	case FrameCreated:
		return "created"
	case FrameRunning:
		return "running"
	case FrameReturned:
		return "returned"
	case FrameTrapped:
		return "trapped"
	default:
		return "unknown"
	}
}

// Deploy is the request of an account to run a module.
type Deploy struct {
	// Account is the name of the account running the deployment.
	Account string

	// Hash is added to the seed of the references minted by the deployment.
	Hash []byte

	// Module is the name of the module to run.
	Module string

	// Entry is the entry point to run, "call" when empty.
	Entry string

	Args value.Args
}

// Call is the request of an account to run a stored contract directly.
type Call struct {
	Account string
	Hash    []byte

	// Contract is the identity of the stored contract.
	Contract uref.Hash

	// Entry selects the entry point, the registered one when empty.
	Entry string

	Args value.Args
}

// Result is the result of a deployment.
type Result struct {
	// Accepted is the success state of the deployment.
	Accepted bool

	// Message gives a chance to the execution to explain why a deployment has
	// failed.
	Message string

	// Kind is the name of the terminal error kind of a failed deployment.
	Kind string

	// Depth is the frame depth at which the failure occurred.
	Depth int

	// Return is the value returned by the deployment, if any.
	Return value.Value

	// GasUsed is the amount of the budget consumed.
	GasUsed uint64
}
