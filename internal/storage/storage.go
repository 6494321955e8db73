package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Well-known keys.
const (
	KeySession   = "session"
	KeyFavorites = "favorites"
	KeyHistory   = "history"
	KeyDeviceID  = "device_id"
)

// Store is the durable per-client persistence adapter. Values survive a
// restart; the session key is removed on logout, shelf keys stay.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the value for key, reporting whether it exists.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM storage WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO storage (key, value, updated_at) VALUES (?, ?, datetime('now'))
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Store) Remove(key string) error {
	_, err := s.db.Exec(`DELETE FROM storage WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// GetJSON unmarshals the value for key into v, reporting whether it existed.
func (s *Store) GetJSON(key string, v any) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v under key as JSON.
func (s *Store) SetJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.Set(key, string(raw))
}

// DeviceID returns the stable per-install identifier, generating and
// persisting one on first use.
func (s *Store) DeviceID() (string, error) {
	id, ok, err := s.Get(KeyDeviceID)
	if err != nil {
		return "", err
	}
	if ok {
		return id, nil
	}
	id = uuid.NewString()
	if err := s.Set(KeyDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}
