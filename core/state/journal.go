package state

import (
	"go.dedis.ch/capvm/core/store"
	"golang.org/x/xerrors"
)

type change struct {
	key  []byte
	prev []byte
	// gen is the generation of the key after the write, and prevGen the one
	// before it.
	gen     uint64
	prevGen uint64
}

// Journal is a snapshot that records the writes of each open level so that
// they can be undone. Writes are applied to the underlying snapshot
// immediately.
//
// - implements store.Snapshot
type Journal struct {
	snap   store.Snapshot
	levels [][]change
	seq    uint64
	gens   map[string]uint64
}

// NewJournal returns a journal writing into the snapshot.
func NewJournal(snap store.Snapshot) *Journal {
	return &Journal{
		snap: snap,
		gens: make(map[string]uint64),
	}
}

// Get implements store.Readable.
func (j *Journal) Get(key []byte) ([]byte, error) {
	return j.snap.Get(key)
}

// Set implements store.Writable. The previous value is recorded in the current
// level, if any.
func (j *Journal) Set(key, value []byte) error {
	err := j.record(key)
	if err != nil {
		return err
	}

	return j.snap.Set(key, value)
}

// Delete implements store.Writable. The previous value is recorded in the
// current level, if any.
func (j *Journal) Delete(key []byte) error {
	err := j.record(key)
	if err != nil {
		return err
	}

	return j.snap.Delete(key)
}

// Begin opens a new level.
func (j *Journal) Begin() {
	j.levels = append(j.levels, nil)
}

// Depth returns the number of open levels.
func (j *Journal) Depth() int {
	return len(j.levels)
}

// Commit closes the current level and keeps its writes. They cannot be undone
// by the enclosing levels anymore.
func (j *Journal) Commit() {
	if len(j.levels) == 0 {
		return
	}

	j.levels = j.levels[:len(j.levels)-1]
}

// Rollback closes the current level and undoes its writes in reverse order. A
// key that has been written since, by a level that already committed, is left
// untouched, whatever the value it holds.
func (j *Journal) Rollback() error {
	if len(j.levels) == 0 {
		return nil
	}

	changes := j.levels[len(j.levels)-1]
	j.levels = j.levels[:len(j.levels)-1]

	for i := len(changes) - 1; i >= 0; i-- {
		c := changes[i]

		if j.gens[string(c.key)] != c.gen {
			continue
		}

		var err error
		if c.prev == nil {
			err = j.snap.Delete(c.key)
		} else {
			err = j.snap.Set(c.key, c.prev)
		}

		if err != nil {
			return xerrors.Errorf("failed to restore slot: %v", err)
		}

		j.gens[string(c.key)] = c.prevGen
	}

	return nil
}

// record bumps the generation of the key and, when a level is open, saves
// what is needed to undo the write.
func (j *Journal) record(key []byte) error {
	var prev []byte

	if len(j.levels) > 0 {
		var err error

		prev, err = j.snap.Get(key)
		if err != nil {
			return err
		}
	}

	j.seq++
	prevGen := j.gens[string(key)]
	j.gens[string(key)] = j.seq

	if len(j.levels) == 0 {
		return nil
	}

	top := len(j.levels) - 1
	j.levels[top] = append(j.levels[top], change{
		key:     append([]byte{}, key...),
		prev:    prev,
		gen:     j.seq,
		prevGen: prevGen,
	})

	return nil
}
