package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/samvad-hq/techwire/internal/digest"
)

var digestsBucket = []byte("digests")

// keyLayout is fixed width so byte order matches time order.
const keyLayout = "20060102T150405.000000000Z"

// Store keeps past digests in a bbolt file.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history path is empty")
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(digestsBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create digests bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save stores d under its generation time and id.
func (s *Store) Save(d digest.Digest) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal digest: %w", err)
	}

	key := []byte(d.GeneratedAt.UTC().Format(keyLayout) + "/" + d.ID)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(digestsBucket).Put(key, payload)
	})
}

// Latest returns up to n digests, newest first.
func (s *Store) Latest(n int) ([]digest.Digest, error) {
	if n <= 0 {
		return nil, nil
	}

	var out []digest.Digest
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(digestsBucket).Cursor()
		for k, v := c.Last(); k != nil && len(out) < n; k, v = c.Prev() {
			var d digest.Digest
			if err := json.Unmarshal(v, &d); err != nil {
				return fmt.Errorf("decode digest %s: %w", k, err)
			}
			out = append(out, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of stored digests.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(digestsBucket).Stats().KeyN
		return nil
	})
	return n, err
}
