package ui

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestWaitingSilentWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	w := NewWaiting(&buf, "Interviewer is thinking")

	wantErr := errors.New("boom")
	if err := w.Wrap(func() error { return wantErr }); err != wantErr {
		t.Errorf("Wrap returned %v, want %v", err, wantErr)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestWaitingRedrawsAndClears(t *testing.T) {
	var buf syncBuffer
	w := &Waiting{w: &buf, label: "Scoring", isTTY: true, interval: 5 * time.Millisecond}

	w.Start()
	w.Start() // second Start is a no-op
	time.Sleep(30 * time.Millisecond)
	w.Stop()
	w.Stop()

	out := buf.String()
	if !strings.Contains(out, "Scoring... ") {
		t.Errorf("missing label: %q", out)
	}
	if strings.Count(out, "Scoring") < 2 {
		t.Errorf("expected redraws, got %q", out)
	}
	if !strings.HasSuffix(out, "\r\033[2K") {
		t.Errorf("line not cleared at the end: %q", out)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{1400 * time.Millisecond, "1s"},
		{59 * time.Second, "59s"},
		{61 * time.Second, "1m1s"},
		{3723 * time.Second, "1h2m3s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
