package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
)

// Store is the key-value store profiles are kept in.
type Store interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	Put(ctx context.Context, userID string, p Profile) error
}

// MemoryStore keeps profiles in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]Profile)}
}

// Get returns the profile for userID, or nil when none is stored.
func (s *MemoryStore) Get(ctx context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Put stores p under userID, replacing any previous profile.
func (s *MemoryStore) Put(ctx context.Context, userID string, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = p
	return nil
}

// SQLStore implements Store on a postgres or sqlite database.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore creates the profiles table if needed and returns a SQLStore.
func NewSQLStore(db *sqlx.DB) (*SQLStore, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		data TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create profiles table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Get retrieves a profile by user ID.
func (s *SQLStore) Get(ctx context.Context, userID string) (*Profile, error) {
	var data string
	err := s.db.QueryRowxContext(ctx, s.db.Rebind("SELECT data FROM profiles WHERE user_id = ?"), userID).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &p, nil
}

// Put saves a profile, replacing any previous one for the user.
func (s *SQLStore) Put(ctx context.Context, userID string, p Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		s.db.Rebind("INSERT INTO profiles (user_id, data) VALUES (?, ?) ON CONFLICT (user_id) DO UPDATE SET data = excluded.data"),
		userID,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
