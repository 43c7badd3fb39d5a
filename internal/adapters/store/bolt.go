package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

const (
	defaultBucket   = "session"
	boltOpenTimeout = time.Second
)

// Bolt is a KeyValueStore on a single bbolt bucket.
type Bolt struct {
	db     *bolt.DB
	bucket []byte
}

// OpenBolt opens (or creates) the database at path and ensures the bucket exists.
func OpenBolt(path, bucket string) (*Bolt, error) {
	if bucket == "" {
		bucket = defaultBucket
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	name := []byte(bucket)

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(name)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
	}

	return &Bolt{db: db, bucket: name}, nil
}

// Get implements ports.KeyValueStore.
func (s *Bolt) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var (
		value string
		found bool
	)

	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(s.bucket).Get([]byte(key)); v != nil {
			// v is only valid inside the transaction
			value, found = string(v), true
		}

		return nil
	})

	return value, found, mapBoltErr(err)
}

// Set implements ports.KeyValueStore.
func (s *Bolt) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return mapBoltErr(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), []byte(value))
	}))
}

// Delete implements ports.KeyValueStore.
func (s *Bolt) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return mapBoltErr(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	}))
}

// Close implements ports.KeyValueStore.
func (s *Bolt) Close() error {
	return s.db.Close()
}

// Name implements ports.HealthChecker.
func (s *Bolt) Name() string {
	return "store"
}

// Check implements ports.HealthChecker.
func (s *Bolt) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return mapBoltErr(s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(s.bucket) == nil {
			return fmt.Errorf("bucket %q missing", s.bucket)
		}

		return nil
	}))
}

func mapBoltErr(err error) error {
	if errors.Is(err, berrors.ErrDatabaseNotOpen) {
		return ErrClosed
	}

	return err
}
