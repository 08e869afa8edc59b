package execution

import (
	"fmt"

	"go.dedis.ch/capvm/core/contract"
	"go.dedis.ch/capvm/core/execution/gas"
	"go.dedis.ch/capvm/core/state"
	"go.dedis.ch/capvm/core/uref"
	"go.dedis.ch/capvm/core/value"
	"golang.org/x/xerrors"
)

var (
	// ErrUnknownEntryPoint is returned when the module has no entry point for
	// the selector, or when an entry point does not recognize a method.
	ErrUnknownEntryPoint = xerrors.New("unknown entry point")

	// ErrUnknownModule is returned when the code service has no module for
	// the name.
	ErrUnknownModule = xerrors.New("unknown module")

	// ErrForgedReference is returned when a frame uses a reference that it was
	// never granted, or with more rights than it was granted.
	ErrForgedReference = xerrors.New("forged reference")

	// ErrRevert is matched by the error of an explicit revert.
	ErrRevert = xerrors.New("revert")

	// ErrFrameClosed is returned when a context is used after its entry point
	// returned.
	ErrFrameClosed = xerrors.New("frame is not running")
)

// KindContractExecution is the kind of a trap without a known cause.
const KindContractExecution = "ContractExecutionError"

// kinds is the list of error kinds reported to the host. A trap is reported
// with the first kind matched in its chain.
var kinds = []struct {
	err  error
	name string
}{
	{err: value.ErrDeserialization, name: "DeserializationError"},
	{err: value.ErrArgumentMissing, name: "ArgumentMissingError"},
	{err: value.ErrArgumentType, name: "ArgumentTypeError"},
	{err: state.ErrPermissionDenied, name: "PermissionDeniedError"},
	{err: uref.ErrInvalidRights, name: "InvalidRightsError"},
	{err: state.ErrNotFound, name: "ValueNotFoundError"},
	{err: state.ErrTypeMismatch, name: "TypeMismatchError"},
	{err: uref.ErrNotURef, name: "TypeMismatchError"},
	{err: uref.ErrNotHash, name: "TypeMismatchError"},
	{err: state.ErrOverflow, name: "OverflowError"},
	{err: uref.ErrUnboundName, name: "UnboundNameError"},
	{err: contract.ErrContractNotFound, name: "ContractNotFoundError"},
	{err: ErrUnknownModule, name: "ContractNotFoundError"},
	{err: ErrUnknownEntryPoint, name: "UnknownEntryPointError"},
	{err: ErrForgedReference, name: "ForgedReferenceError"},
	{err: gas.ErrOutOfGas, name: "OutOfGasError"},
	{err: ErrRevert, name: "RevertError"},
}

// TrapError is the error of a frame that trapped. It wraps the cause, which is
// itself a TrapError when the frame propagated the failure of a nested call.
type TrapError struct {
	// Depth is the depth of the frame that trapped.
	Depth int

	// Entry is the entry point of the frame.
	Entry string

	Err error
}

// Error implements error.
func (e *TrapError) Error() string {
	return fmt.Sprintf("contract execution error at depth %d in '%s': %v",
		e.Depth, e.Entry, e.Err)
}

// Unwrap returns the cause of the trap.
func (e *TrapError) Unwrap() error {
	return e.Err
}

// Origin returns the innermost trap of the chain, which is the frame where the
// failure occurred. It returns nil if the error is not a trap.
func Origin(err error) *TrapError {
	var origin *TrapError

	for err != nil {
		trap, ok := err.(*TrapError)
		if ok {
			origin = trap
		}

		err = xerrors.Unwrap(err)
	}

	return origin
}

// KindOf returns the name of the terminal error kind of the error.
func KindOf(err error) string {
	if err == nil {
		return ""
	}

	for _, k := range kinds {
		if xerrors.Is(err, k.err) {
			return k.name
		}
	}

	return KindContractExecution
}

// RevertError is the error of an explicit failure with a user code.
type RevertError struct {
	Code uint32
}

// Error implements error.
func (e RevertError) Error() string {
	return fmt.Sprintf("revert with code %d", e.Code)
}

// Is returns true when the target is ErrRevert so that any code matches.
func (e RevertError) Is(target error) bool {
	return target == ErrRevert
}
