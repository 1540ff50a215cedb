// Package bbolt implements ports.PatternStore using bbolt (embedded B+ tree).
// The "sets" bucket maps a set name to its patterns in a compact binary
// encoding; the "meta" bucket holds gob-encoded bookkeeping for each set.
// Writes are transactional: a crash mid-write cannot corrupt previously
// committed data.
package bbolt

import (
	"fmt"
	"time"

	"github.com/corey/dakota/internal/ports"
	bolt "go.etcd.io/bbolt"
)

// Bucket keys
var (
	bucketSets = []byte("sets")
	bucketMeta = []byte("meta")
)

// SetInfo describes a stored pattern set.
type SetInfo struct {
	Name    string
	Count   int
	Updated time.Time
}

// Store implements ports.PatternStore backed by bbolt.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

var _ ports.PatternStore = (*Store)(nil)

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// SaveSet stores patterns under name, replacing any previous set.
func (s *Store) SaveSet(name string, patterns []ports.Pattern) error {
	if name == "" {
		return fmt.Errorf("empty set name")
	}
	data, err := encodePatterns(patterns)
	if err != nil {
		return fmt.Errorf("encode set %q: %w", name, err)
	}
	meta, err := encodeGob(SetInfo{Name: name, Count: len(patterns), Updated: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode set %q info: %w", name, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		sb, err := tx.CreateBucketIfNotExists(bucketSets)
		if err != nil {
			return err
		}
		mb, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if err := sb.Put([]byte(name), data); err != nil {
			return err
		}
		return mb.Put([]byte(name), meta)
	})
}

// LoadSet retrieves the patterns stored under name, in name order.
// Returns nil, nil if no such set exists.
func (s *Store) LoadSet(name string) ([]ports.Pattern, error) {
	data, err := s.get(bucketSets, name)
	if err != nil || data == nil {
		return nil, err
	}
	patterns, err := decodePatterns(data)
	if err != nil {
		return nil, fmt.Errorf("decode set %q: %w", name, err)
	}
	return patterns, nil
}

// Info returns the bookkeeping record of a set, or nil if it does not exist.
func (s *Store) Info(name string) (*SetInfo, error) {
	data, err := s.get(bucketMeta, name)
	if err != nil || data == nil {
		return nil, err
	}
	var info SetInfo
	if err := decodeGob(data, &info); err != nil {
		return nil, fmt.Errorf("decode set %q info: %w", name, err)
	}
	return &info, nil
}

func (s *Store) get(bucket []byte, name string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := b.Get([]byte(name)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	return data, err
}

// DeleteSet removes a set. Idempotent: deleting a nonexistent set is not an
// error.
func (s *Store) DeleteSet(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketSets, bucketMeta} {
			b := tx.Bucket(bucket)
			if b == nil {
				continue
			}
			if err := b.Delete([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListSets returns the names of all stored sets in byte order.
func (s *Store) ListSets() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSets)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}
