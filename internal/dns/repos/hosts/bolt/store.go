// Package bolt provides a bbolt-backed hosts store for deployments whose host
// tables are too large to hold comfortably in memory. Addresses are stored as
// their 4- or 16-byte wire form keyed by canonical name.
package bolt

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/rr-relay/internal/dns/repos/hosts"
)

var (
	bucketHosts = []byte("hosts")
	bucketMeta  = []byte("meta")
)

// boltStore implements hosts.Store using bbolt.
type boltStore struct {
	db *bbolt.DB
}

// New opens (or creates) a Bolt database at path and ensures buckets exist.
func New(path string) (*boltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketHosts); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketMeta); err != nil {
			return err
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStore{db: db}, nil
}

// Rebuild replaces the stored table with the given entries in one write
// transaction. Duplicate names keep the first occurrence.
func (s *boltStore) Rebuild(entries []hosts.Entry, loadedUnix int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketHosts); err != nil {
			return err
		}
		b, err := tx.CreateBucket(bucketHosts)
		if err != nil {
			return err
		}
		for _, e := range entries {
			key := []byte(e.Name)
			if b.Get(key) != nil {
				continue
			}
			if err := b.Put(key, e.Addr.AsSlice()); err != nil {
				return err
			}
		}
		meta := tx.Bucket(bucketMeta)
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(loadedUnix))
		return meta.Put([]byte("loaded"), buf)
	})
}

func (s *boltStore) GetAddr(name string) (netip.Addr, bool, error) {
	var (
		addr  netip.Addr
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketHosts)
		if b == nil {
			return nil
		}
		v := b.Get([]byte(name))
		if v == nil {
			return nil
		}
		a, ok := netip.AddrFromSlice(v)
		if !ok {
			return fmt.Errorf("corrupt address record for %q: %d bytes", name, len(v))
		}
		addr, found = a, true
		return nil
	})
	return addr, found, err
}

func (s *boltStore) Len() int {
	var n int
	_ = s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketHosts); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n
}

// LoadedUnix returns the timestamp recorded by the last Rebuild, or zero.
func (s *boltStore) LoadedUnix() int64 {
	var ts int64
	_ = s.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketMeta); b != nil {
			if v := b.Get([]byte("loaded")); len(v) == 8 {
				ts = int64(binary.BigEndian.Uint64(v))
			}
		}
		return nil
	})
	return ts
}

func (s *boltStore) Close() error { return s.db.Close() }

var _ hosts.Store = (*boltStore)(nil)
