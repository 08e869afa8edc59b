package execution

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/capvm/core/contract"
	"go.dedis.ch/capvm/core/execution/gas"
	"go.dedis.ch/capvm/core/state"
	"go.dedis.ch/capvm/core/uref"
	"go.dedis.ch/capvm/core/value"
	"go.dedis.ch/capvm/internal/testing/fake"
	"golang.org/x/xerrors"
)

func TestKindOf(t *testing.T) {
	require.Equal(t, "", KindOf(nil))
	require.Equal(t, KindContractExecution, KindOf(fake.GetError()))

	cases := map[error]string{
		value.ErrDeserialization:     "DeserializationError",
		value.ErrArgumentMissing:     "ArgumentMissingError",
		value.ErrArgumentType:        "ArgumentTypeError",
		state.ErrPermissionDenied:    "PermissionDeniedError",
		uref.ErrInvalidRights:        "InvalidRightsError",
		state.ErrNotFound:            "ValueNotFoundError",
		state.ErrTypeMismatch:        "TypeMismatchError",
		uref.ErrUnboundName:          "UnboundNameError",
		contract.ErrContractNotFound: "ContractNotFoundError",
		ErrUnknownEntryPoint:         "UnknownEntryPointError",
		ErrForgedReference:           "ForgedReferenceError",
		gas.ErrOutOfGas:              "OutOfGasError",
		ErrRevert:                    "RevertError",
	}

	for err, kind := range cases {
		trap := &TrapError{Depth: 2, Entry: "call", Err: xerrors.Errorf("oops: %w", err)}
		require.Equal(t, kind, KindOf(trap), err.Error())
	}

	require.Equal(t, "RevertError", KindOf(RevertError{Code: 3}))
}

func TestOrigin(t *testing.T) {
	require.Nil(t, Origin(fake.GetError()))

	inner := &TrapError{Depth: 2, Entry: "ext", Err: ErrUnknownEntryPoint}
	middle := &TrapError{Depth: 1, Entry: "ext", Err: xerrors.Errorf("call: %w", inner)}
	outer := &TrapError{Depth: 0, Entry: "call", Err: middle}

	require.Same(t, inner, Origin(outer))
	require.Same(t, inner, Origin(inner))
}

func TestTrapError_Error(t *testing.T) {
	trap := &TrapError{Depth: 1, Entry: "call", Err: fake.GetError()}

	require.Equal(t, "contract execution error at depth 1 in 'call': fake error", trap.Error())
	require.True(t, xerrors.Is(trap, fake.GetError()))
}

func TestRevertError_Is(t *testing.T) {
	err := xerrors.Errorf("failed: %w", RevertError{Code: 42})

	require.True(t, xerrors.Is(err, ErrRevert))
	require.EqualError(t, err, "failed: revert with code 42")

	var revert RevertError
	require.True(t, xerrors.As(err, &revert))
	require.Equal(t, uint32(42), revert.Code)
}

func TestFrameState_String(t *testing.T) {
	require.Equal(t, "created", FrameCreated.String())
	require.Equal(t, "running", FrameRunning.String())
	require.Equal(t, "returned", FrameReturned.String())
	require.Equal(t, "trapped", FrameTrapped.String())
	require.Equal(t, "unknown", FrameState(42).String())
}
