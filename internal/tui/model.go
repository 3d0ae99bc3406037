package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/rehearse-dev/rehearse/internal/capture"
	"github.com/rehearse-dev/rehearse/internal/interview"
	"github.com/rehearse-dev/rehearse/internal/kv"
	"github.com/rehearse-dev/rehearse/internal/report"
)

// Deps are the collaborators the interview screen drives.
type Deps struct {
	Session    *interview.Orchestrator
	Store      kv.Store
	Dictation  *capture.Dictation // nil without a transcriber
	Speaker    capture.Speaker    // nil to stay silent
	Logger     *zap.Logger
	ReportsDir string
}

type inputMode int

const (
	modeAnswer inputMode = iota
	modeCode
)

// Model is the interview screen.
type Model struct {
	ctx  context.Context
	deps Deps
	keys KeyMap

	snap    interview.Snapshot
	report  *report.Report
	written string

	mode      inputMode
	langFocus bool
	pending   bool
	recording bool
	spokenID  string
	warning   string
	err       error

	input    textinput.Model
	language textinput.Model
	code     textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	width        int
	height       int
	ctrlCPending bool
}

// New creates the interview screen. ctx bounds every call it makes.
func New(ctx context.Context, deps Deps) *Model {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "Type your answer..."
	ti.CharLimit = 4000
	ti.Width = 80
	ti.Focus()

	lang := textinput.New()
	lang.Placeholder = "language (optional)"
	lang.CharLimit = 32
	lang.Width = 24

	ta := textarea.New()
	ta.Placeholder = "Paste or write your code..."
	ta.CharLimit = 20000
	ta.ShowLineNumbers = true
	ta.SetWidth(80)
	ta.SetHeight(10)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	vp := viewport.New(80, 20)

	style := "notty"
	if IsTTY() {
		style = "dark"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		deps.Logger.Warn("markdown renderer unavailable", zap.Error(err))
	}

	m := &Model{
		ctx:      ctx,
		deps:     deps,
		keys:     DefaultKeyMap,
		input:    ti,
		language: lang,
		code:     ta,
		viewport: vp,
		spinner:  sp,
		renderer: renderer,
		width:    80,
		height:   24,
	}
	m.snap = deps.Session.Snapshot()
	m.refresh()
	return m
}
