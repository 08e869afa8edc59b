package state

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/capvm/core/store/mem"
	"go.dedis.ch/capvm/core/uref"
	"go.dedis.ch/capvm/core/value"
	"go.dedis.ch/capvm/internal/testing/fake"
	"golang.org/x/xerrors"
)

func TestJournal_Rollback(t *testing.T) {
	j := NewJournal(mem.NewSnapshot())
	st := NewState(j)
	gen := uref.NewGenerator(nil)

	a, err := st.Mint(gen, value.Int(1))
	require.NoError(t, err)

	b := gen.Mint()

	// The outer level writes a, then an inner level writes b and returns.
	j.Begin()
	require.NoError(t, st.Write(a, value.Int(2)))

	j.Begin()
	require.Equal(t, 2, j.Depth())
	require.NoError(t, st.Write(b, value.Int(10)))
	j.Commit()

	require.NoError(t, st.Write(a, value.Int(3)))
	require.NoError(t, j.Rollback())
	require.Equal(t, 0, j.Depth())

	v, err := st.Read(a)
	require.NoError(t, err)
	require.Equal(t, value.Int(1), v)

	// The inner write survives the rollback of the outer level.
	v, err = st.Read(b)
	require.NoError(t, err)
	require.Equal(t, value.Int(10), v)

	// Closing without open levels is a no-op.
	j.Commit()
	require.NoError(t, j.Rollback())
}

func TestJournal_RollbackKeepsCommittedOverwrite(t *testing.T) {
	j := NewJournal(mem.NewSnapshot())
	st := NewState(j)
	gen := uref.NewGenerator(nil)

	a, err := st.Mint(gen, value.Int(1))
	require.NoError(t, err)

	j.Begin()
	require.NoError(t, st.Write(a, value.Int(2)))

	j.Begin()
	require.NoError(t, st.Write(a, value.Int(7)))
	j.Commit()

	require.NoError(t, j.Rollback())

	v, err := st.Read(a)
	require.NoError(t, err)
	require.Equal(t, value.Int(7), v)
}

func TestJournal_RollbackKeepsCommittedWriteOfSameValue(t *testing.T) {
	j := NewJournal(mem.NewSnapshot())
	st := NewState(j)
	gen := uref.NewGenerator(nil)

	a, err := st.Mint(gen, value.Int(5))
	require.NoError(t, err)

	j.Begin()
	require.NoError(t, st.Write(a, value.Int(7)))

	// Two nested levels bring the slot back to the value of the outer write.
	j.Begin()
	require.NoError(t, st.Add(a, value.Int(1)))
	j.Commit()

	j.Begin()
	require.NoError(t, st.Add(a, value.Int(-1)))
	j.Commit()

	require.NoError(t, j.Rollback())

	v, err := st.Read(a)
	require.NoError(t, err)
	require.Equal(t, value.Int(7), v)
}

func TestJournal_RollbackSeveralWritesOfSameSlot(t *testing.T) {
	j := NewJournal(mem.NewSnapshot())
	st := NewState(j)

	a, err := st.Mint(uref.NewGenerator(nil), value.Int(1))
	require.NoError(t, err)

	j.Begin()
	require.NoError(t, st.Write(a, value.Int(2)))
	require.NoError(t, st.Write(a, value.Int(3)))
	require.NoError(t, j.Rollback())

	v, err := st.Read(a)
	require.NoError(t, err)
	require.Equal(t, value.Int(1), v)
}

func TestJournal_RollbackNewSlot(t *testing.T) {
	j := NewJournal(mem.NewSnapshot())
	st := NewState(j)

	j.Begin()
	ref, err := st.Mint(uref.NewGenerator(nil), value.Unit{})
	require.NoError(t, err)
	require.NoError(t, j.Rollback())

	_, err = st.Read(ref)
	require.True(t, xerrors.Is(err, ErrNotFound))
}

func TestJournal_RollbackDelete(t *testing.T) {
	snap := mem.NewSnapshot()
	snap.Set([]byte("A"), []byte{1})

	j := NewJournal(snap)
	j.Begin()
	require.NoError(t, j.Delete([]byte("A")))

	res, err := j.Get([]byte("A"))
	require.NoError(t, err)
	require.Nil(t, res)

	require.NoError(t, j.Rollback())

	res, err = j.Get([]byte("A"))
	require.NoError(t, err)
	require.Equal(t, []byte{1}, res)
}

func TestJournal_Failures(t *testing.T) {
	j := NewJournal(fake.NewBadSnapshot())
	j.Begin()

	err := j.Set([]byte("A"), []byte{1})
	require.EqualError(t, err, fake.GetError().Error())

	err = j.Delete([]byte("A"))
	require.EqualError(t, err, fake.GetError().Error())

	snap := fake.NewSnapshot()
	j = NewJournal(snap)
	j.Begin()
	require.NoError(t, j.Set([]byte("A"), []byte{1}))

	snap.ErrDelete = fake.GetError()
	require.EqualError(t, j.Rollback(), fake.Err("failed to restore slot"))

	snap.ErrWrite = fake.GetError()
	j.Begin()
	j.levels[0] = []change{{key: []byte("A"), prev: []byte{0}, gen: j.gens["A"]}}
	require.EqualError(t, j.Rollback(), fake.Err("failed to restore slot"))
}
