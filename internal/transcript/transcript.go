package transcript

import (
	"sync"
	"time"
)

// Transcript is an ordered, append-only sequence of entries. Entries are
// never edited or removed; Reset is the only way to empty it and belongs to
// the session owner.
type Transcript struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

// New returns an empty transcript.
func New() *Transcript {
	return &Transcript{now: time.Now}
}

// Append adds an entry of the given kind and returns the stored copy.
func (t *Transcript) Append(kind Kind, content string) (Entry, error) {
	return t.AppendCode(kind, content, "")
}

// AppendCode adds an entry carrying a language tag. The tag is dropped for
// kinds other than KindCode.
func (t *Transcript) AppendCode(kind Kind, content, language string) (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, err := newEntry(kind, content, language, t.now())
	if err != nil {
		return Entry{}, err
	}
	t.entries = append(t.entries, e)
	return e, nil
}

// Entries returns a copy of all entries in append order.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Last returns the most recent entry of kind, if any.
func (t *Transcript) Last(kind Kind) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].Kind == kind {
			return t.entries[i], true
		}
	}
	return Entry{}, false
}

// Count returns how many entries have the given kind.
func (t *Transcript) Count(kind Kind) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, e := range t.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Reset discards every entry.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}
