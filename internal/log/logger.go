// Package log provides structured event logging.
// This file appends JSON session events to log.jsonl.
package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event type constants.
const (
	EventSessionStarted   = "session_started"
	EventQuestionAsked    = "question_asked"
	EventAnswerSubmitted  = "answer_submitted"
	EventCodeSubmitted    = "code_submitted"
	EventCompletionFailed = "completion_failed"
	EventResponseDropped  = "response_discarded"
	EventSessionStopped   = "session_stopped"
	EventReportGenerated  = "report_generated"
	EventSessionReset     = "session_reset"
)

// LogEvent represents a single structured event written to the log.
type LogEvent struct {
	Time       time.Time              `json:"time"`
	Event      string                 `json:"event"`
	SessionID  string                 `json:"session,omitempty"`
	EntryID    string                 `json:"entry,omitempty"`
	JobRole    string                 `json:"job_role,omitempty"`
	Difficulty string                 `json:"difficulty,omitempty"`
	Kind       string                 `json:"kind,omitempty"`
	Language   string                 `json:"language,omitempty"`
	NonAnswer  bool                   `json:"non_answer,omitempty"`
	Fallback   bool                   `json:"fallback,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Entries    int                    `json:"entries,omitempty"`
	Pairs      int                    `json:"pairs,omitempty"`
	ElapsedSec int                    `json:"elapsed_sec,omitempty"`
	DurationMs int64                  `json:"duration_ms,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Sink accepts session events. *Logger implements it; callers that do not
// want an event log pass nil where a Sink is optional.
type Sink interface {
	Append(event LogEvent) error
}

// Logger writes append-only JSONL events to a log file.
type Logger struct {
	path string
	mu   sync.Mutex
}

// NewLogger creates a Logger that writes to .rehearse/log.jsonl inside dir.
// Creates the .rehearse/ directory if it does not already exist.
// Does not truncate an existing log file.
func NewLogger(dir string) (*Logger, error) {
	stateDir := filepath.Join(dir, ".rehearse")
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("create .rehearse directory: %w", err)
	}

	return &Logger{
		path: filepath.Join(stateDir, "log.jsonl"),
	}, nil
}

// Append writes a single LogEvent as one JSON line to the log file.
// If event.Time is the zero value, it is automatically set to time.Now().UTC().
// Thread-safe via mutex.
func (l *Logger) Append(event LogEvent) error {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal log event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write log event: %w", err)
	}

	return nil
}

// ReadAll reads and parses all events from the log file.
// Returns an empty slice (not an error) if the file does not exist.
func (l *Logger) ReadAll() ([]LogEvent, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []LogEvent{}, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var events []LogEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event LogEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("parse log line %d: %w", lineNum, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	return events, nil
}
