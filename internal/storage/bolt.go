package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/unanetx/internal/shared"
	bolt "go.etcd.io/bbolt"
)

// BoltFile is the database file the bolt driver keeps under storage.dir.
const BoltFile = "blobs.bolt"

var (
	blobsBucket = []byte("blobs")
	metaBucket  = []byte("blob_meta") // name -> update time, unix nanoseconds big endian
)

// BoltStore keeps blobs in a single bbolt file. Writers are serialized by bbolt.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens or creates the bolt file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: bolt file", shared.ErrMissingConfig)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", shared.ErrStorage, path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{blobsBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to create buckets: %v", shared.ErrStorage, err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(blobsBucket).Get([]byte(name))
		if v == nil {
			return fmt.Errorf("%w: blob %s", shared.ErrNotFound, name)
		}
		// v is only valid inside the transaction.
		data = append([]byte{}, v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *BoltStore) Put(ctx context.Context, name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stamp := make([]byte, 8)
	binary.BigEndian.PutUint64(stamp, uint64(time.Now().UTC().UnixNano()))

	err := s.db.Update(func(tx *bolt.Tx) error {
		if data == nil {
			data = []byte{}
		}
		if err := tx.Bucket(blobsBucket).Put([]byte(name), data); err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Put([]byte(name), stamp)
	})
	if err != nil {
		return fmt.Errorf("%w: failed to write blob %s: %v", shared.ErrStorage, name, err)
	}
	return nil
}

// List returns blobs in key order, which for bolt is byte order of the name.
func (s *BoltStore) List(ctx context.Context) ([]BlobInfo, error) {
	var blobs []BlobInfo
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		return tx.Bucket(blobsBucket).ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			info := BlobInfo{Name: string(k), Size: int64(len(v))}
			if stamp := meta.Get(k); len(stamp) == 8 {
				info.UpdatedAt = time.Unix(0, int64(binary.BigEndian.Uint64(stamp))).UTC()
			}
			blobs = append(blobs, info)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list blobs: %v", shared.ErrStorage, err)
	}
	return blobs, nil
}

// Close releases the file lock.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
