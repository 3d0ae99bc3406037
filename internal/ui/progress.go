// Package ui provides terminal output helpers for the line-mode session.
// This file implements the waiting indicator shown during completion calls.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

const refreshInterval = 500 * time.Millisecond

// Waiting shows a live "label... 3s" line while a slow call runs. On a
// non-terminal writer it prints nothing.
type Waiting struct {
	w        io.Writer
	label    string
	isTTY    bool
	interval time.Duration

	mu    sync.Mutex
	start time.Time
	stop  chan struct{}
	done  chan struct{}
}

// NewWaiting creates an indicator writing to w.
func NewWaiting(w io.Writer, label string) *Waiting {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &Waiting{w: w, label: label, isTTY: tty, interval: refreshInterval}
}

// Wrap runs fn with the indicator shown.
func (p *Waiting) Wrap(fn func() error) error {
	p.Start()
	defer p.Stop()
	return fn()
}

// Start draws the indicator and keeps it updated until Stop.
func (p *Waiting) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.isTTY || p.stop != nil {
		return
	}

	p.start = time.Now()
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	p.render(0)

	go func(stop, done chan struct{}) {
		defer close(done)
		t := time.NewTicker(p.interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				p.mu.Lock()
				p.render(time.Since(p.start))
				p.mu.Unlock()
			}
		}
	}(p.stop, p.done)
}

// Stop clears the indicator line and returns how long it was shown.
func (p *Waiting) Stop() time.Duration {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()
	if stop == nil {
		return 0
	}

	close(stop)
	<-done

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.w, "\r\033[2K")
	return time.Since(p.start)
}

// render redraws the line in place. Caller holds p.mu.
func (p *Waiting) render(elapsed time.Duration) {
	fmt.Fprintf(p.w, "\r\033[2K\033[33m⏳\033[0m %s... \033[90m%s\033[0m", p.label, formatDuration(elapsed))
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", h, m, s)
}
