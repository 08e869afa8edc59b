package kv

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestBoltDB_New(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "missing", "test.db"))
	require.Nil(t, db)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to open db: ")
}

func TestBoltDB_UpdateAndView(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"), WithTimeout(time.Second))
	require.NoError(t, err)

	defer db.Close()

	err = db.Update(func(tx WritableTx) error {
		bucket, err := tx.GetBucketOrCreate([]byte("bucket"))
		require.NoError(t, err)

		return bucket.Set([]byte("ping"), []byte("pong"))
	})
	require.NoError(t, err)

	err = db.View(func(tx ReadableTx) error {
		require.Nil(t, tx.GetBucket([]byte{0xaa}))

		bucket := tx.GetBucket([]byte("bucket"))
		require.NotNil(t, bucket)
		require.Equal(t, []byte("pong"), bucket.Get([]byte("ping")))

		return nil
	})
	require.NoError(t, err)

	err = db.Update(func(tx WritableTx) error {
		_, err := tx.GetBucketOrCreate(nil)
		return err
	})
	require.EqualError(t, err, "failed to create bucket: bucket name required")
}

func TestBoltDB_UpdateRollback(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	defer db.Close()

	err = db.Update(func(tx WritableTx) error {
		bucket, err := tx.GetBucketOrCreate([]byte("bucket"))
		require.NoError(t, err)

		require.NoError(t, bucket.Set([]byte("ping"), []byte("pong")))

		return xerrors.New("oops")
	})
	require.EqualError(t, err, "oops")

	err = db.View(func(tx ReadableTx) error {
		require.Nil(t, tx.GetBucket([]byte("bucket")))
		return nil
	})
	require.NoError(t, err)
}

func TestBoltBucket_Get_Set_Delete(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	defer db.Close()

	err = db.Update(func(tx WritableTx) error {
		b, err := tx.GetBucketOrCreate([]byte("bucket"))
		require.NoError(t, err)

		require.NoError(t, b.Set([]byte("ping"), []byte("pong")))

		value := b.Get([]byte("ping"))
		require.Equal(t, []byte("pong"), value)

		value = b.Get([]byte("pong"))
		require.Nil(t, value)

		require.NoError(t, b.Delete([]byte("ping")))

		value = b.Get([]byte("ping"))
		require.Nil(t, value)

		return nil
	})

	require.NoError(t, err)
}

func TestBoltDB_ReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	_, err := New(path, WithReadOnly())
	require.Error(t, err)

	db, err := New(path)
	require.NoError(t, err)

	err = db.Update(func(tx WritableTx) error {
		bucket, err := tx.GetBucketOrCreate([]byte("bucket"))
		require.NoError(t, err)

		return bucket.Set([]byte("ping"), []byte("pong"))
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = New(path, WithReadOnly(), WithTimeout(time.Second))
	require.NoError(t, err)

	defer db.Close()

	err = db.View(func(tx ReadableTx) error {
		require.Equal(t, []byte("pong"), tx.GetBucket([]byte("bucket")).Get([]byte("ping")))
		return nil
	})
	require.NoError(t, err)

	err = db.Update(func(tx WritableTx) error { return nil })
	require.Error(t, err)
}

func TestSnapshot_Bucket(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	defer db.Close()

	err = db.Update(func(tx WritableTx) error {
		b, err := tx.GetBucketOrCreate([]byte("state"))
		require.NoError(t, err)

		snap := NewSnapshot(b)

		value, err := snap.Get([]byte("a"))
		require.NoError(t, err)
		require.Nil(t, value)

		require.NoError(t, snap.Set([]byte("a"), []byte{1}))

		value, err = snap.Get([]byte("a"))
		require.NoError(t, err)
		require.Equal(t, []byte{1}, value)

		require.NoError(t, snap.Delete([]byte("a")))

		value, err = snap.Get([]byte("a"))
		require.NoError(t, err)
		require.Nil(t, value)

		return nil
	})
	require.NoError(t, err)
}
