// Package bolt implements the storage interfaces on top of an embedded bbolt
// database.
//
// Access tokens are keyed by their thumbprint, so token values are never
// written to disk.
package bolt

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	clientsBucket      = "clients"
	accessTokensBucket = "access_tokens"
)

// Open opens the database at path, creating the file and its buckets if
// needed.
func Open(path string) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open the bolt database: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range []string{clientsBucket, accessTokensBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("could not create bucket %s: %w", bucket, err)
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
