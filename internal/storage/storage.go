// Package storage provides durable local key-value storage for the
// session-scoped state stores. Each store owns a distinct key and never
// touches another store's key; records are self-describing JSON.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"
)

const stateBucket = "state"

// Keys owned by the state stores. Namespacing is the only isolation
// mechanism between stores sharing the database file.
const (
	KeyCart           = "cart"
	KeySession        = "session"
	KeyRecentlyViewed = "recently_viewed"
)

// Store is a BoltDB-backed key-value store for persisted client state.
type Store struct {
	db     *bbolt.DB
	logger zerolog.Logger
}

// Open opens (creating if needed) the storage database at the given path.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger.With().Str("component", "storage").Logger(),
	}
	if err := store.ensureBucket(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put serialises value as JSON and writes it under key.
func (s *Store) Put(key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal record %q: %w", key, err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(stateBucket))
		if bucket == nil {
			return fmt.Errorf("state bucket is missing")
		}
		return bucket.Put([]byte(key), payload)
	})
	if err != nil {
		return fmt.Errorf("write record %q: %w", key, err)
	}

	return nil
}

// Get reads the record under key into out. It returns false when the key is
// absent. A record that fails to parse is treated as absent rather than an
// error: the caller initialises its empty default and the corrupt record is
// overwritten on the next Put.
func (s *Store) Get(key string, out interface{}) (bool, error) {
	var payload []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(stateBucket))
		if bucket == nil {
			return fmt.Errorf("state bucket is missing")
		}
		if value := bucket.Get([]byte(key)); value != nil {
			payload = make([]byte, len(value))
			copy(payload, value)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("read record %q: %w", key, err)
	}

	if payload == nil {
		return false, nil
	}

	if err := json.Unmarshal(payload, out); err != nil {
		s.logger.Warn().
			Err(err).
			Str("key", key).
			Msg("persisted record failed to parse, treating as absent")
		return false, nil
	}

	return true, nil
}

// Delete removes the record under key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(stateBucket))
		if bucket == nil {
			return fmt.Errorf("state bucket is missing")
		}
		return bucket.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("delete record %q: %w", key, err)
	}

	return nil
}

func (s *Store) ensureBucket() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(stateBucket))
		if err != nil {
			return fmt.Errorf("create state bucket: %w", err)
		}
		return nil
	})
}
