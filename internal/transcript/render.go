package transcript

import (
	"fmt"
	"strings"
)

// Speaker labels used when a transcript is rendered for the model.
const (
	InterviewerLabel = "Interviewer:"
	CandidateLabel   = "Candidate:"
)

// RenderLine renders one entry as a chat line.
func RenderLine(e Entry) string {
	switch e.Kind {
	case KindQuestion:
		return InterviewerLabel + " " + e.Content
	case KindAnswer:
		return CandidateLabel + " " + e.Content
	case KindCode:
		return fmt.Sprintf("Candidate (code submission, %s):\n%s", languageOrPlain(e.Language), CodeBlock(e.Content, e.Language))
	default:
		return fmt.Sprintf("[%s] %s", e.Kind, e.Content)
	}
}

// Render renders entries as alternating "Interviewer:" / "Candidate:" lines,
// one entry per line, in order.
func Render(entries []Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, RenderLine(e))
	}
	return strings.Join(lines, "\n")
}

// CodeBlock wraps code in a fenced markdown block tagged with language.
func CodeBlock(code, language string) string {
	return "```" + language + "\n" + strings.TrimRight(code, "\n") + "\n```"
}

func languageOrPlain(language string) string {
	if language == "" {
		return "plain text"
	}
	return language
}
