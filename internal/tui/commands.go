package tui

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/rehearse-dev/rehearse/internal/completion"
	"github.com/rehearse-dev/rehearse/internal/interview"
	"github.com/rehearse-dev/rehearse/internal/practice"
	"github.com/rehearse-dev/rehearse/internal/report"
)

// result turns an orchestrator outcome into a sessionMsg. Credential
// errors become a warning since the session advanced with the fallback
// question; discarded replies are silently dropped.
func (m *Model) result(err error) tea.Msg {
	msg := sessionMsg{snap: m.deps.Session.Snapshot()}
	switch {
	case err == nil, errors.Is(err, interview.ErrResponseDiscarded):
	case completion.IsCredentialError(err):
		msg.warning = completion.Guidance(err)
	default:
		msg.err = err
	}
	return msg
}

func (m *Model) startCmd() tea.Cmd {
	return func() tea.Msg {
		cfg, err := practice.Load(m.ctx, m.deps.Store)
		if err != nil {
			return m.result(err)
		}
		return m.result(m.deps.Session.Start(m.ctx, cfg))
	}
}

func (m *Model) answerCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return m.result(m.deps.Session.SubmitAnswer(m.ctx, text))
	}
}

func (m *Model) codeCmd(code, language string) tea.Cmd {
	return func() tea.Msg {
		return m.result(m.deps.Session.SubmitCode(m.ctx, code, language))
	}
}

func (m *Model) questionCmd() tea.Cmd {
	return func() tea.Msg {
		return m.result(m.deps.Session.RequestQuestion(m.ctx))
	}
}

func (m *Model) reportCmd() tea.Cmd {
	return func() tea.Msg {
		rep, err := m.deps.Session.RequestReport(m.ctx)
		if err != nil {
			return reportMsg{err: err}
		}
		msg := reportMsg{report: rep}
		if m.deps.ReportsDir != "" {
			path, err := report.WriteReport(m.deps.ReportsDir, rep)
			if err != nil {
				m.deps.Logger.Warn("writing report file", zap.Error(err))
			}
			msg.path = path
		}
		return msg
	}
}

func (m *Model) speakCmd(text string) tea.Cmd {
	speaker := m.deps.Speaker
	return func() tea.Msg {
		return spokenMsg{err: speaker.Speak(m.ctx, text)}
	}
}

func (m *Model) dictateStartCmd() tea.Cmd {
	return func() tea.Msg {
		return dictationMsg{started: true, err: m.deps.Dictation.Start(m.ctx)}
	}
}

func (m *Model) dictateStopCmd() tea.Cmd {
	return func() tea.Msg {
		text, err := m.deps.Dictation.Stop(m.ctx)
		return dictationMsg{text: text, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
