package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/rehearse-dev/rehearse/internal/interview"
	"github.com/rehearse-dev/rehearse/internal/transcript"
)

// Init starts the timer refresh and, for a fresh session, the interview.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, tick()}
	if m.snap.State == interview.StateIdle {
		m.pending = true
		cmds = append(cmds, m.startCmd(), m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Update handles messages for the interview screen.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tickMsg:
		m.snap.ElapsedSec = m.deps.Session.Elapsed()
		return m, tick()

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionMsg:
		m.pending = false
		return m, m.applySession(msg)

	case reportMsg:
		m.pending = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.report = msg.report
		m.written = msg.path
		m.snap = m.deps.Session.Snapshot()
		m.refresh()
		return m, nil

	case dictationMsg:
		if msg.started {
			m.recording = msg.err == nil
			m.err = msg.err
			return m, nil
		}
		m.recording = false
		m.pending = false
		return m, m.applySession(m.result(msg.err).(sessionMsg))

	case spokenMsg:
		if msg.err != nil {
			m.deps.Logger.Warn("speaking question", zap.Error(msg.err))
		}
		return m, nil

	case ctrlCResetMsg:
		m.ctrlCPending = false
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, m.updateInput(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Quit) {
		m.ctrlCPending = false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.ctrlCPending {
			if m.recording {
				m.deps.Dictation.Cancel()
			}
			return m, tea.Quit
		}
		m.ctrlCPending = true
		return m, tea.Tick(time.Second, func(time.Time) tea.Msg { return ctrlCResetMsg{} })

	case key.Matches(msg, m.keys.End):
		if m.snap.State != interview.StateActive {
			return m, nil
		}
		if m.recording {
			m.deps.Dictation.Cancel()
			m.recording = false
		}
		return m, m.applySession(m.result(m.deps.Session.Stop()).(sessionMsg))

	case key.Matches(msg, m.keys.Report):
		if m.pending || (m.snap.State != interview.StateEnded && m.snap.State != interview.StateReported) {
			return m, nil
		}
		m.pending = true
		return m, tea.Batch(m.reportCmd(), m.spinner.Tick)

	case key.Matches(msg, m.keys.Reset):
		if m.recording {
			m.deps.Dictation.Cancel()
			m.recording = false
		}
		m.deps.Session.Reset()
		m.report, m.written = nil, ""
		m.warning, m.err = "", nil
		m.spokenID = ""
		m.snap = m.deps.Session.Snapshot()
		m.refresh()
		m.pending = true
		return m, tea.Batch(m.startCmd(), m.spinner.Tick)

	case key.Matches(msg, m.keys.Question):
		if m.pending || m.snap.State != interview.StateActive {
			return m, nil
		}
		m.pending = true
		return m, tea.Batch(m.questionCmd(), m.spinner.Tick)

	case key.Matches(msg, m.keys.Dictate):
		return m, m.toggleDictation()

	case key.Matches(msg, m.keys.CodeMode):
		m.setMode(m.mode == modeAnswer)
		return m, nil

	case m.mode == modeCode && key.Matches(msg, m.keys.SwitchField):
		m.langFocus = !m.langFocus
		m.focusCode()
		return m, nil

	case m.mode == modeCode && key.Matches(msg, m.keys.SubmitCode):
		code := m.code.Value()
		if m.pending || strings.TrimSpace(code) == "" {
			return m, nil
		}
		language := strings.TrimSpace(m.language.Value())
		m.code.Reset()
		m.language.Reset()
		m.setMode(false)
		m.pending = true
		return m, tea.Batch(m.codeCmd(code, language), m.spinner.Tick)

	case m.mode == modeAnswer && key.Matches(msg, m.keys.Submit):
		text := strings.TrimSpace(m.input.Value())
		if m.pending || text == "" {
			return m, nil
		}
		m.input.Reset()
		m.pending = true
		return m, tea.Batch(m.answerCmd(text), m.spinner.Tick)
	}

	return m, m.updateInput(msg)
}

// toggleDictation starts recording, or stops it and submits what was heard.
func (m *Model) toggleDictation() tea.Cmd {
	if m.deps.Dictation == nil {
		m.warning = "No transcriber configured. Set capture.transcriber_command in .rehearse/config.yaml."
		return nil
	}
	if m.recording {
		m.pending = true
		return tea.Batch(m.dictateStopCmd(), m.spinner.Tick)
	}
	if m.pending || m.snap.State != interview.StateActive {
		return nil
	}
	return m.dictateStartCmd()
}

// applySession stores the snapshot and speaks a newly asked question.
func (m *Model) applySession(msg sessionMsg) tea.Cmd {
	m.snap = msg.snap
	m.warning = msg.warning
	m.err = msg.err
	m.refresh()

	if m.deps.Speaker == nil || len(m.snap.Entries) == 0 {
		return nil
	}
	last := m.snap.Entries[len(m.snap.Entries)-1]
	if last.Kind != transcript.KindQuestion || last.ID == m.spokenID {
		return nil
	}
	m.spokenID = last.ID
	return m.speakCmd(last.Content)
}

func (m *Model) setMode(code bool) {
	if code {
		m.mode = modeCode
		m.langFocus = false
		m.input.Blur()
		m.focusCode()
	} else {
		m.mode = modeAnswer
		m.code.Blur()
		m.language.Blur()
		m.input.Focus()
	}
	m.resize(m.width, m.height)
}

func (m *Model) focusCode() {
	if m.langFocus {
		m.code.Blur()
		m.language.Focus()
		return
	}
	m.language.Blur()
	m.code.Focus()
}

func (m *Model) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case m.mode == modeAnswer:
		m.input, cmd = m.input.Update(msg)
	case m.langFocus:
		m.language, cmd = m.language.Update(msg)
	default:
		m.code, cmd = m.code.Update(msg)
	}
	return cmd
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	inner := width - 4
	if inner < 20 {
		inner = 20
	}
	m.input.Width = inner - 4
	m.code.SetWidth(inner)

	// header, status bar, input area and borders
	reserved := 8
	if m.mode == modeCode {
		reserved += m.code.Height() + 1
	}
	vh := height - reserved
	if vh < 3 {
		vh = 3
	}
	m.viewport.Width = inner
	m.viewport.Height = vh
	m.refresh()
}
