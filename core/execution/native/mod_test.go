package native

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/capvm/core/execution"
	"golang.org/x/xerrors"
)

func TestService_Get(t *testing.T) {
	srvc := NewExecution()
	srvc.Set("abc", Module{"call": fakeEntry})

	mod, err := srvc.Get("abc")
	require.NoError(t, err)

	fn, found := mod.EntryPoint("call")
	require.True(t, found)
	require.NotNil(t, fn)

	_, found = mod.EntryPoint("other")
	require.False(t, found)

	_, err = srvc.Get("none")
	require.True(t, xerrors.Is(err, execution.ErrUnknownModule))
	require.EqualError(t, err, "'none': unknown module")
}

func TestService_RequireUniqueModuleName(t *testing.T) {
	srvc := NewExecution()
	srvc.Set("abc", Module{})

	require.PanicsWithError(t, "module 'abc' already registered", func() {
		srvc.Set("abc", Module{})
	})

	require.PanicsWithError(t, "module name cannot be empty", func() {
		srvc.Set("", Module{})
	})
}

func TestService_Names(t *testing.T) {
	srvc := NewExecution()
	srvc.Set("b", Module{})
	srvc.Set("a", Module{})

	require.Equal(t, []string{"a", "b"}, srvc.Names())
}

func TestModule_NilEntryPoint(t *testing.T) {
	mod := Module{"call": nil}

	_, found := mod.EntryPoint("call")
	require.False(t, found)
}

// -----------------------------------------------------------------------------
// Utility functions

func fakeEntry(execution.Context) error {
	return nil
}
