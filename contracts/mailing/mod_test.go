package mailing

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/capvm/core/execution"
	"go.dedis.ch/capvm/core/execution/native"
	"go.dedis.ch/capvm/core/state"
	"go.dedis.ch/capvm/core/store/mem"
	"go.dedis.ch/capvm/core/uref"
	"go.dedis.ch/capvm/core/value"
)

func TestMailing_Scenario(t *testing.T) {
	engine, snap := setup(t)

	res, err := engine.Deploy(snap, execution.Deploy{Account: "alice", Module: ModuleName})
	require.NoError(t, err)
	require.True(t, res.Accepted, res.Message)
	require.Equal(t, value.Strings(Welcome, defaultMessage), res.Return)

	keys, err := engine.NamedKeys(snap, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{KeyList, KeyFeed}, keys.Names())

	feedKey, err := keys.Resolve(KeyFeed)
	require.NoError(t, err)

	feed, err := feedKey.ToURef()
	require.NoError(t, err)
	require.Equal(t, uref.Read, feed.Rights())

	v, err := engine.Query(snap, "alice", KeyFeed)
	require.NoError(t, err)
	require.Equal(t, value.Strings(Welcome, defaultMessage), v)
}

func TestMailing_SecondSubscriber(t *testing.T) {
	engine, snap := setup(t)
	list := listHash(t, engine, snap)

	res, err := engine.Invoke(snap, execution.Call{
		Account:  "bob",
		Contract: list,
		Args:     value.NewArgs(value.String(MethodSub), value.String("Bob")),
	})
	require.NoError(t, err)
	require.True(t, res.Accepted, res.Message)

	opt, ok := res.Return.(value.Option)
	require.True(t, ok)

	sub, ok := opt.Get()
	require.True(t, ok)

	feed, err := sub.(value.Key).ToURef()
	require.NoError(t, err)
	require.Equal(t, uref.Read, feed.Rights())

	res, err = engine.Deploy(snap, execution.Deploy{
		Account: "alice",
		Module:  ModuleName,
		Args:    value.NewArgs(value.String("Alice"), value.String("hi")),
	})
	require.NoError(t, err)
	require.True(t, res.Accepted, res.Message)
	require.Equal(t, value.Strings(Welcome, "hi"), res.Return)

	v, err := state.NewState(snap).Read(feed)
	require.NoError(t, err)
	require.Equal(t, value.Strings(Welcome, "hi"), v)

	// A name can subscribe only once.
	res, err = engine.Invoke(snap, execution.Call{
		Account:  "bob",
		Contract: list,
		Args:     value.NewArgs(value.String(MethodSub), value.String("Bob")),
	})
	require.NoError(t, err)
	require.True(t, res.Accepted, res.Message)
	require.Equal(t, value.None(), res.Return)

	res, err = engine.Deploy(snap, execution.Deploy{
		Account: "alice",
		Module:  ModuleName,
		Args:    value.NewArgs(value.String("Bob")),
	})
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, execution.KindContractExecution, res.Kind)
	require.Contains(t, res.Message, "name 'Bob': already subscribed")

	// The feed of a subscriber cannot be written by the subscriber.
	res, err = engine.Invoke(snap, execution.Call{
		Account:  "bob",
		Contract: list,
		Args:     value.NewArgs(value.String(MethodPub), value.String("again")),
	})
	require.NoError(t, err)
	require.True(t, res.Accepted, res.Message)

	v, err = state.NewState(snap).Read(feed)
	require.NoError(t, err)
	require.Equal(t, value.Strings(Welcome, "hi", "again"), v)

	err = state.NewState(snap).Write(feed, value.List{})
	require.ErrorIs(t, err, state.ErrPermissionDenied)
}

func TestMailing_UnknownMethod(t *testing.T) {
	engine, snap := setup(t)

	res, err := engine.Invoke(snap, execution.Call{
		Account:  "bob",
		Contract: listHash(t, engine, snap),
		Args:     value.NewArgs(value.String("drop"), value.String("Bob")),
	})
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, "UnknownEntryPointError", res.Kind)
	require.Equal(t, 1, res.Depth)

	res, err = engine.Invoke(snap, execution.Call{
		Account:  "bob",
		Contract: listHash(t, engine, snap),
		Args:     value.NewArgs(value.String(MethodSub), value.Int(1)),
	})
	require.NoError(t, err)
	require.Equal(t, "ArgumentTypeError", res.Kind)
}

func TestMailing_CallWithoutList(t *testing.T) {
	engine, snap := setup(t)

	res, err := engine.Deploy(snap, execution.Deploy{Account: "bob", Module: ModuleName})
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, "UnboundNameError", res.Kind)
}

// -----------------------------------------------------------------------------
// Utility functions

func setup(t *testing.T) (*execution.Engine, *mem.Snapshot) {
	srvc := native.NewExecution()
	RegisterContract(srvc)

	engine := execution.NewEngine(srvc, execution.WithLogger(zerolog.Nop()))
	snap := mem.NewSnapshot()

	res, err := engine.Deploy(snap, execution.Deploy{
		Account: "alice",
		Module:  ModuleName,
		Entry:   EntryDefine,
	})
	require.NoError(t, err)
	require.True(t, res.Accepted, res.Message)

	return engine, snap
}

func listHash(t *testing.T, engine *execution.Engine, snap *mem.Snapshot) uref.Hash {
	keys, err := engine.NamedKeys(snap, "alice")
	require.NoError(t, err)

	key, err := keys.Resolve(KeyList)
	require.NoError(t, err)

	hash, err := key.ToHash()
	require.NoError(t, err)

	return hash
}
