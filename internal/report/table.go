package report

import (
	"fmt"
	"strings"

	"github.com/rehearse-dev/rehearse/internal/answer"
	"github.com/rehearse-dev/rehearse/internal/history"
	"github.com/rehearse-dev/rehearse/internal/transcript"
)

// Pair scans entries once and pairs every answer or code entry with the most
// recent question before it. Entries is not modified.
func Pair(entries []transcript.Entry) []history.QAPair {
	pairs := []history.QAPair{}
	lastQuestion := ""
	for _, e := range entries {
		switch e.Kind {
		case transcript.KindQuestion:
			lastQuestion = e.Content
		case transcript.KindAnswer:
			pairs = append(pairs, history.QAPair{
				Question:  lastQuestion,
				Answer:    e.Content,
				Kind:      transcript.KindAnswer,
				NonAnswer: answer.IsNonAnswer(e.Content),
			})
		case transcript.KindCode:
			pairs = append(pairs, history.QAPair{
				Question:  lastQuestion,
				Answer:    CodeMarker(e.Language) + " " + e.Content,
				Kind:      transcript.KindCode,
				Language:  e.Language,
				NonAnswer: answer.IsNonAnswer(e.Content),
			})
		}
	}
	return pairs
}

// CodeMarker labels a code answer in the table, e.g. "[code: python]".
func CodeMarker(language string) string {
	if language == "" {
		return "[code]"
	}
	return fmt.Sprintf("[code: %s]", language)
}

// HasCode reports whether any pair is a code submission.
func HasCode(pairs []history.QAPair) bool {
	for _, p := range pairs {
		if p.Kind == transcript.KindCode {
			return true
		}
	}
	return false
}

// Table renders pairs as a markdown table. A Kind column is added when any
// pair is a code submission. With no pairs only the header is produced.
func Table(pairs []history.QAPair) string {
	withKind := HasCode(pairs)

	var b strings.Builder
	if withKind {
		b.WriteString("| Question | Answer | Kind |\n|---|---|---|")
	} else {
		b.WriteString("| Question | Answer |\n|---|---|")
	}
	for _, p := range pairs {
		if withKind {
			fmt.Fprintf(&b, "\n| %s | %s | %s |", cell(p.Question), cell(p.Answer), p.Kind)
		} else {
			fmt.Fprintf(&b, "\n| %s | %s |", cell(p.Question), cell(p.Answer))
		}
	}
	return b.String()
}

// cell strips pipes and flattens line breaks so content stays in one cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "")
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
