package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rehearse-dev/rehearse/internal/interview"
	"github.com/rehearse-dev/rehearse/internal/practice"
	"github.com/rehearse-dev/rehearse/internal/report"
	"github.com/rehearse-dev/rehearse/internal/transcript"
)

// View renders the interview screen.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(BoxStyle.Width(m.viewport.Width).Render(m.viewport.View()))
	b.WriteString("\n")

	if line := m.notice(); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(m.inputView())
	b.WriteString("\n")
	b.WriteString(m.statusBar())

	return b.String()
}

func (m *Model) header() string {
	title := TitleStyle.Render("rehearse")
	if m.snap.Config != nil {
		title += DimStyle.Render(" · " + m.snap.Config.Describe())
	}
	right := fmt.Sprintf("%s  %s", badge(m.snap.State), report.FormatElapsed(m.snap.ElapsedSec))
	if m.recording {
		right = RecordingStyle.Render("● REC") + "  " + right
	}
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + right
}

func badge(s interview.State) string {
	switch s {
	case interview.StateActive:
		return BadgeActive
	case interview.StateEnded:
		return BadgeEnded
	case interview.StateReported:
		return BadgeReported
	default:
		return BadgeIdle
	}
}

func (m *Model) notice() string {
	switch {
	case m.pending:
		return m.spinner.View() + DimStyle.Render(" Waiting for the interviewer...")
	case m.err != nil:
		return ErrorStyle.Render(errorText(m.err))
	case m.warning != "":
		return WarningStyle.Render(m.warning)
	case m.written != "":
		return SuccessStyle.Render("Report saved to " + m.written)
	}
	return ""
}

func errorText(err error) string {
	switch {
	case errors.Is(err, practice.ErrNotConfigured), errors.Is(err, interview.ErrConfigRequired):
		return "No practice configuration saved. Run `rehearse configure` first."
	case errors.Is(err, interview.ErrBusy):
		return "Still waiting on the previous request."
	case errors.Is(err, interview.ErrNotActive):
		return "The interview has ended. Press ctrl+r for the report or ctrl+x for a new session."
	}
	return err.Error()
}

func (m *Model) inputView() string {
	switch {
	case m.snap.State == interview.StateEnded:
		return DimStyle.Render("Interview ended. ctrl+r generates the report.")
	case m.snap.State == interview.StateReported:
		return DimStyle.Render("ctrl+x starts a new session.")
	case m.mode == modeCode:
		return m.language.View() + "\n" + m.code.View()
	}
	return m.input.View()
}

func (m *Model) statusBar() string {
	var hints []string
	add := func(keys ...string) { hints = append(hints, keys...) }

	switch m.snap.State {
	case interview.StateActive:
		if m.mode == modeCode {
			add(m.keys.SubmitCode.Help().Key+" submit", "tab field", "ctrl+e answer")
		} else {
			add("enter answer", "ctrl+e code")
		}
		add("ctrl+n next", "ctrl+v voice", "ctrl+t end")
	case interview.StateEnded, interview.StateReported:
		add("ctrl+r report", "ctrl+x new")
	default:
		add("ctrl+x start")
	}
	if m.ctrlCPending {
		add(WarningStyle.Render("ctrl+c again to quit"))
	} else {
		add("ctrl+c quit")
	}
	return StatusBarStyle.Width(m.width).Render(strings.Join(hints, " · "))
}

// refresh rebuilds the viewport from the report or the transcript.
func (m *Model) refresh() {
	if m.report != nil {
		m.viewport.SetContent(m.renderMarkdown(report.Markdown(m.report)))
		m.viewport.GotoTop()
		return
	}

	if len(m.snap.Entries) == 0 {
		m.viewport.SetContent(DimStyle.Render("The interviewer will ask the first question shortly."))
		return
	}

	wrap := lipgloss.NewStyle().Width(m.viewport.Width)
	lines := make([]string, 0, len(m.snap.Entries))
	for _, e := range m.snap.Entries {
		line := transcript.RenderLine(e)
		if e.Kind == transcript.KindQuestion {
			line = InterviewerStyle.Render(wrap.Render(line))
		} else {
			line = CandidateStyle.Render(wrap.Render(line))
		}
		lines = append(lines, line)
	}
	m.viewport.SetContent(strings.Join(lines, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *Model) renderMarkdown(md string) string {
	if m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}
