package meal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"nutriflow/internal/profile"
)

// MealSuggestion represents one meal recovered from a generated text block.
type MealSuggestion struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Calories     string   `json:"calories"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	TakenItems   []string `json:"taken_items"`
}

// TakenItem is one entry of a TakenItems set.
type TakenItem struct {
	Name  string
	Count int
}

// TakenItems is the ordered item -> count set reported by the fridge backend.
// It encodes as a JSON object and keeps the key order of the decoded source.
type TakenItems []TakenItem

// Names returns the item names in order.
func (t TakenItems) Names() []string {
	names := make([]string, 0, len(t))
	for _, item := range t {
		names = append(names, item.Name)
	}
	return names
}

// MarshalJSON implements the json.Marshaler interface for TakenItems.
func (t TakenItems) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", item.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface for TakenItems.
// A JSON array of names is accepted too, each name counting once.
func (t *TakenItems) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*t = nil
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var names []string
		if err := json.Unmarshal(trimmed, &names); err != nil {
			return err
		}
		items := make(TakenItems, 0, len(names))
		for _, name := range names {
			items = append(items, TakenItem{Name: name, Count: 1})
		}
		*t = items
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("taken items: expected object, got %v", tok)
	}

	items := TakenItems{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("taken items: unexpected key %v", tok)
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("taken items: count for %q: %w", name, err)
		}
		items = append(items, TakenItem{Name: name, Count: count})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*t = items
	return nil
}

// Batch is one persisted parse of a generated meal text.
type Batch struct {
	ID              string                   `json:"id" db:"id"`
	UserID          string                   `json:"user_id" db:"user_id"`
	RawText         string                   `json:"raw_text" db:"raw_text"`
	TakenItems      TakenItems               `json:"taken_items"`
	Suggestions     []MealSuggestion         `json:"meal_suggestions"`
	AllergyWarnings []profile.AllergyWarning `json:"allergy_warnings"`
	SnapshotPath    string                   `json:"snapshot_path,omitempty" db:"snapshot_path"`
	CreatedAt       time.Time                `json:"created_at" db:"created_at"`
}
