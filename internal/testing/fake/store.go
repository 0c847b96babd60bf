package fake

import (
	"go.dedis.ch/tdec/store/kv"
)

// InMemoryDB is a fake implementation of a key/value database that keeps the
// buckets in memory.
//
// - implements kv.DB
type InMemoryDB struct {
	buckets map[string]*InMemoryBucket
	err     error
	errView error
}

// NewInMemoryDB returns a new empty database.
func NewInMemoryDB() *InMemoryDB {
	return &InMemoryDB{
		buckets: make(map[string]*InMemoryBucket),
	}
}

// NewBadDB returns a database that fails on updates.
func NewBadDB() *InMemoryDB {
	db := NewInMemoryDB()
	db.err = fakeErr

	return db
}

// NewBadViewDB returns a database that fails on views.
func NewBadViewDB() *InMemoryDB {
	db := NewInMemoryDB()
	db.errView = fakeErr

	return db
}

// View implements kv.DB.
func (db *InMemoryDB) View(bucket []byte, fn func(kv.Bucket) error) error {
	if db.errView != nil {
		return db.errView
	}

	b, found := db.buckets[string(bucket)]
	if !found {
		return kv.ErrBucketNotFound
	}

	return fn(b)
}

// Update implements kv.DB.
func (db *InMemoryDB) Update(bucket []byte, fn func(kv.Bucket) error) error {
	if db.err != nil {
		return db.err
	}

	b, found := db.buckets[string(bucket)]
	if !found {
		b = &InMemoryBucket{values: make(map[string][]byte)}
		db.buckets[string(bucket)] = b
	}

	return fn(b)
}

// Close implements kv.DB.
func (db *InMemoryDB) Close() error {
	return nil
}

// InMemoryBucket is a fake implementation of a bucket.
//
// - implements kv.Bucket
type InMemoryBucket struct {
	values map[string][]byte
}

// Get implements kv.Bucket.
func (b *InMemoryBucket) Get(key []byte) []byte {
	return b.values[string(key)]
}

// Set implements kv.Bucket.
func (b *InMemoryBucket) Set(key, value []byte) error {
	b.values[string(key)] = value
	return nil
}
