package storage

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// Store is the durable string-keyed store the core persists into. Get
// reports absence through its second return; Set and Remove are atomic
// per key. Implementations must tolerate arbitrary key shapes.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
	Keys() []string
}

var bucketName = []byte("watchnarr")

// BoltStore implements Store on top of a single-bucket bbolt database
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens (or creates) the database file and the backing bucket
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database file
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key, if any
func (s *BoltStore) Get(key string) (string, bool) {
	var value string
	var found bool

	_ = s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketName).Get([]byte(key))
		if data != nil {
			value = string(data)
			found = true
		}
		return nil
	})

	return value, found
}

// Set writes value under key in a single transaction
func (s *BoltStore) Set(key, value string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), []byte(value))
	})
}

// Remove deletes key; removing an absent key is not an error
func (s *BoltStore) Remove(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
}

// Keys enumerates every stored key
func (s *BoltStore) Keys() []string {
	var keys []string

	_ = s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, v []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})

	return keys
}
