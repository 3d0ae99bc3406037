// Package history persists finished interview sessions, newest first.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rehearse-dev/rehearse/internal/kv"
	"github.com/rehearse-dev/rehearse/internal/practice"
	"github.com/rehearse-dev/rehearse/internal/transcript"
)

// QAPair is one answer or code submission paired with the question it
// responded to.
type QAPair struct {
	Question  string          `json:"question"`
	Answer    string          `json:"answer"`
	Kind      transcript.Kind `json:"kind"`
	Language  string          `json:"language,omitempty"`
	NonAnswer bool            `json:"nonAnswer,omitempty"`
}

// Record is one stored session.
type Record struct {
	ID        string             `json:"id"`
	SessionID string             `json:"sessionId,omitempty"`
	Config    practice.Config    `json:"config"`
	QAPairs   []QAPair           `json:"qaPairs"`
	Messages  []transcript.Entry `json:"messages"`
	EndedAt   time.Time          `json:"endedAt"`
}

// Store keeps the session list as a single JSON value under kv.KeyHistory.
// Records are only ever prepended; existing records are never rewritten.
type Store struct {
	kv kv.Store
	mu sync.Mutex
}

// NewStore wraps a key-value store.
func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// Prepend adds rec to the front of the list.
func (s *Store) Prepend(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.list(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(append([]Record{rec}, records...))
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := s.kv.Set(ctx, kv.KeyHistory, string(data)); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// List returns every record, newest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(ctx)
}

// Latest returns the most recent record, if any.
func (s *Store) Latest(ctx context.Context) (Record, bool, error) {
	records, err := s.List(ctx)
	if err != nil || len(records) == 0 {
		return Record{}, false, err
	}
	return records[0], true, nil
}

// Clear removes all stored records.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Delete(ctx, kv.KeyHistory)
}

func (s *Store) list(ctx context.Context) ([]Record, error) {
	raw, ok, err := s.kv.Get(ctx, kv.KeyHistory)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if !ok || raw == "" {
		return []Record{}, nil
	}
	var records []Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return records, nil
}
