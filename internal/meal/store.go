package meal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store defines the interface for suggestion batch persistence.
type Store interface {
	SaveBatch(ctx context.Context, batch *Batch) error
	GetBatch(ctx context.Context, id string) (*Batch, error)
	ListBatches(ctx context.Context, userID string, limit int) ([]*Batch, error)
}

// MemoryStore keeps batches in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	batches map[string]*Batch
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{batches: make(map[string]*Batch)}
}

// SaveBatch stores a batch, replacing any batch with the same ID.
func (s *MemoryStore) SaveBatch(ctx context.Context, batch *Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := *batch
	s.batches[b.ID] = &b
	return nil
}

// GetBatch returns the batch with the given ID, or nil when absent.
func (s *MemoryStore) GetBatch(ctx context.Context, id string) (*Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[id]
	if !ok {
		return nil, nil
	}
	out := *b
	return &out, nil
}

// ListBatches returns the newest batches first. An empty userID matches all
// users and a limit <= 0 means no limit.
func (s *MemoryStore) ListBatches(ctx context.Context, userID string, limit int) ([]*Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batches := []*Batch{}
	for _, b := range s.batches {
		if userID != "" && b.UserID != userID {
			continue
		}
		out := *b
		batches = append(batches, &out)
	}
	sort.Slice(batches, func(i, j int) bool {
		return batches[i].CreatedAt.After(batches[j].CreatedAt)
	})
	if limit > 0 && len(batches) > limit {
		batches = batches[:limit]
	}
	return batches, nil
}

// SQLStore implements Store on a postgres or sqlite database.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore creates the suggestion_batches table if needed.
func NewSQLStore(db *sqlx.DB) (*SQLStore, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS suggestion_batches (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		raw_text TEXT,
		taken_items TEXT,
		suggestions TEXT,
		allergy_warnings TEXT,
		snapshot_path TEXT,
		created_at TEXT
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create suggestion_batches table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// batchRow is the column layout of suggestion_batches.
type batchRow struct {
	ID              string `db:"id"`
	UserID          string `db:"user_id"`
	RawText         string `db:"raw_text"`
	TakenItems      string `db:"taken_items"`
	Suggestions     string `db:"suggestions"`
	AllergyWarnings string `db:"allergy_warnings"`
	SnapshotPath    string `db:"snapshot_path"`
	CreatedAt       string `db:"created_at"`
}

const selectBatch = "SELECT id, user_id, raw_text, taken_items, suggestions, allergy_warnings, snapshot_path, created_at FROM suggestion_batches"

// SaveBatch saves a batch to the database.
func (s *SQLStore) SaveBatch(ctx context.Context, batch *Batch) error {
	takenJSON, err := json.Marshal(batch.TakenItems)
	if err != nil {
		return fmt.Errorf("failed to marshal taken items: %w", err)
	}
	suggestionsJSON, err := json.Marshal(batch.Suggestions)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestions: %w", err)
	}
	warningsJSON, err := json.Marshal(batch.AllergyWarnings)
	if err != nil {
		return fmt.Errorf("failed to marshal allergy warnings: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO suggestion_batches (id, user_id, raw_text, taken_items, suggestions, allergy_warnings, snapshot_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET user_id = excluded.user_id, raw_text = excluded.raw_text, taken_items = excluded.taken_items,
		suggestions = excluded.suggestions, allergy_warnings = excluded.allergy_warnings, snapshot_path = excluded.snapshot_path, created_at = excluded.created_at`),
		batch.ID,
		batch.UserID,
		batch.RawText,
		string(takenJSON),
		string(suggestionsJSON),
		string(warningsJSON),
		batch.SnapshotPath,
		batch.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}
	return nil
}

// GetBatch retrieves a batch by ID.
func (s *SQLStore) GetBatch(ctx context.Context, id string) (*Batch, error) {
	var row batchRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(selectBatch+" WHERE id = ?"), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return row.batch()
}

// ListBatches retrieves batches newest first, optionally filtered by user.
func (s *SQLStore) ListBatches(ctx context.Context, userID string, limit int) ([]*Batch, error) {
	var args []interface{}
	query := selectBatch + " WHERE 1=1"
	if userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []batchRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	batches := make([]*Batch, 0, len(rows))
	for _, row := range rows {
		b, err := row.batch()
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, nil
}

func (r batchRow) batch() (*Batch, error) {
	b := &Batch{
		ID:           r.ID,
		UserID:       r.UserID,
		RawText:      r.RawText,
		SnapshotPath: r.SnapshotPath,
	}
	if err := json.Unmarshal([]byte(r.TakenItems), &b.TakenItems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal taken items: %w", err)
	}
	if err := json.Unmarshal([]byte(r.Suggestions), &b.Suggestions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal suggestions: %w", err)
	}
	if err := json.Unmarshal([]byte(r.AllergyWarnings), &b.AllergyWarnings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal allergy warnings: %w", err)
	}
	createdAt, err := time.Parse(timeLayout, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	b.CreatedAt = createdAt
	return b, nil
}
