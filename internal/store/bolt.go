package store

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var historyBucket = []byte("history")

// DefaultHistoryLimit caps how many entries are kept per session.
const DefaultHistoryLimit = 20

// Entry is one resolved query as shown in the "Recent queries" list.
type Entry struct {
	Query     string    `json:"query"`
	Category  string    `json:"category,omitempty"`
	Sentiment string    `json:"sentiment,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Steps     int       `json:"steps"`
	At        time.Time `json:"at"`
}

type Store interface {
	Append(sessionID string, e Entry) error
	History(sessionID string) ([]Entry, error)
	Clear(sessionID string) error
	Close() error
}

type BoltStore struct {
	db    *bolt.DB
	limit int
}

func NewBoltStore(path string, limit int) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(historyBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history bucket: %w", err)
	}

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &BoltStore{db: db, limit: limit}, nil
}

// Append adds e as the newest entry, dropping the oldest past the limit.
func (s *BoltStore) Append(sessionID string, e Entry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(historyBucket)

		var entries []Entry
		if v := b.Get([]byte(sessionID)); v != nil {
			if err := json.Unmarshal(v, &entries); err != nil {
				return fmt.Errorf("decoding history: %w", err)
			}
		}
		entries = append(entries, e)
		if len(entries) > s.limit {
			entries = entries[len(entries)-s.limit:]
		}

		data, err := json.Marshal(entries)
		if err != nil {
			return err
		}
		return b.Put([]byte(sessionID), data)
	})
}

// History returns the session's entries, oldest first.
func (s *BoltStore) History(sessionID string) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(historyBucket).Get([]byte(sessionID))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &entries)
	})
	return entries, err
}

func (s *BoltStore) Clear(sessionID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(historyBucket).Delete([]byte(sessionID))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
