// Package transcript implements the append-only conversation log of one
// interview session.
package transcript

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind tags what a transcript entry holds.
type Kind string

const (
	KindQuestion Kind = "question"
	KindAnswer   Kind = "answer"
	KindCode     Kind = "code"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindQuestion, KindAnswer, KindCode:
		return true
	default:
		return false
	}
}

// IsResponse reports whether the entry was produced by the candidate.
func (k Kind) IsResponse() bool {
	switch k {
	case KindAnswer, KindCode:
		return true
	case KindQuestion:
		return false
	default:
		return false
	}
}

// Entry is one immutable line of the conversation.
// Language is set only for KindCode entries.
type Entry struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
	Language  string    `json:"language,omitempty"`
}

// newEntry stamps an entry with a time-ordered ID.
func newEntry(kind Kind, content, language string, now time.Time) (Entry, error) {
	if !kind.Valid() {
		return Entry{}, fmt.Errorf("unknown entry kind %q", kind)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Entry{}, fmt.Errorf("generate entry id: %w", err)
	}
	if kind != KindCode {
		language = ""
	}
	return Entry{
		ID:        id.String(),
		Kind:      kind,
		Content:   content,
		CreatedAt: now,
		Language:  language,
	}, nil
}
