package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FormatElapsed renders seconds as mm:ss.
func FormatElapsed(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

// FormatReport produces a terminal-friendly, human-readable summary string.
func FormatReport(r *Report) string {
	var b strings.Builder

	b.WriteString("========================================\n")
	b.WriteString("  Interview Report\n")
	b.WriteString("========================================\n")
	b.WriteString("\n")

	fmt.Fprintf(&b, "Position:    %s\n", r.Config.Describe())
	fmt.Fprintf(&b, "Duration:    %s\n", FormatElapsed(r.ElapsedSec))
	fmt.Fprintf(&b, "Questions:   %d\n", r.QuestionsAsked)
	fmt.Fprintf(&b, "Answers:     %d", r.AnswersGiven)
	if r.NonAnswers > 0 {
		fmt.Fprintf(&b, " (%d non-answer)", r.NonAnswers)
	}
	b.WriteString("\n\n")

	b.WriteString("Q&A:\n")
	b.WriteString(r.Table)
	b.WriteString("\n\n")

	b.WriteString("Assessment:\n")
	b.WriteString(r.Narrative)
	b.WriteString("\n")

	b.WriteString("========================================\n")

	return b.String()
}

// Markdown renders the report as a standalone markdown document.
func Markdown(r *Report) string {
	var b strings.Builder

	b.WriteString("# Interview Report\n\n")
	fmt.Fprintf(&b, "- **Position:** %s\n", r.Config.Describe())
	fmt.Fprintf(&b, "- **Duration:** %s\n", FormatElapsed(r.ElapsedSec))
	fmt.Fprintf(&b, "- **Questions asked:** %d\n", r.QuestionsAsked)
	fmt.Fprintf(&b, "- **Answers given:** %d\n", r.AnswersGiven)
	if !r.EndedAt.IsZero() {
		fmt.Fprintf(&b, "- **Ended:** %s\n", r.EndedAt.Format("2006-01-02 15:04"))
	}
	b.WriteString("\n## Questions & Answers\n\n")
	b.WriteString(r.Table)
	b.WriteString("\n\n## Assessment\n\n")
	b.WriteString(r.Narrative)
	b.WriteString("\n")

	return b.String()
}

// WriteReport writes the markdown report to {dir}/<ended-at>.md and returns
// the path. Creates dir if it does not exist.
func WriteReport(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating reports directory: %w", err)
	}

	ts := r.EndedAt
	if ts.IsZero() {
		ts = r.GeneratedAt
	}
	path := filepath.Join(dir, ts.UTC().Format("20060102-150405")+".md")

	if err := os.WriteFile(path, []byte(Markdown(r)), 0644); err != nil {
		return "", fmt.Errorf("writing report file: %w", err)
	}

	return path, nil
}

// Dir returns the reports directory inside the project root.
func Dir(projectRoot string) string {
	return filepath.Join(projectRoot, ".rehearse", "reports")
}
