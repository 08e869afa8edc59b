// Package kv defines the key/value database that persists the global state
// between the runs of a host.
//
// The default implementation uses bbolt (https://github.com/etcd-io/bbolt).
// A host opens a bucket inside a transaction and wraps it with NewSnapshot, so
// that a deployment reads and writes the state through the store interfaces
// and all of its writes land in a single transaction.
package kv

// Bucket is a named set of keys inside a database transaction.
type Bucket interface {
	// Get returns the value of the key, or nil if it does not exist. The
	// value is only valid during the transaction.
	Get(key []byte) []byte

	// Set assigns the value to the key.
	Set(key, value []byte) error

	// Delete removes the key from the bucket.
	Delete(key []byte) error
}

// ReadableTx is a read-only transaction.
type ReadableTx interface {
	// GetBucket returns the bucket of the given name, or nil if it does not
	// exist.
	GetBucket(name []byte) Bucket
}

// WritableTx is a transaction that is committed when its function returns
// without error.
type WritableTx interface {
	ReadableTx

	// GetBucketOrCreate returns the bucket of the given name and creates it if
	// needed.
	GetBucketOrCreate(name []byte) (Bucket, error)
}

// DB is a key/value database.
type DB interface {
	// View runs the function in a read-only transaction.
	View(fn func(ReadableTx) error) error

	// Update runs the function in a writable transaction. The transaction is
	// rolled back if the function returns an error.
	Update(fn func(WritableTx) error) error

	// Close releases the database. Later transactions fail.
	Close() error
}
