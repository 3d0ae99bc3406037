package tui

import (
	"time"

	"github.com/rehearse-dev/rehearse/internal/interview"
	"github.com/rehearse-dev/rehearse/internal/report"
)

// sessionMsg carries the session after an orchestrator call returned.
type sessionMsg struct {
	snap    interview.Snapshot
	warning string
	err     error
}

// reportMsg carries a generated report and where it was written.
type reportMsg struct {
	report *report.Report
	path   string
	err    error
}

// dictationMsg signals that recording started (text empty) or was flushed.
type dictationMsg struct {
	started bool
	text    string
	err     error
}

// spokenMsg signals that a question finished playing.
type spokenMsg struct {
	err error
}

// tickMsg refreshes the elapsed timer.
type tickMsg time.Time

// ctrlCResetMsg clears the pending quit confirmation.
type ctrlCResetMsg struct{}
