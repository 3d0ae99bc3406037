package interview

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/rehearse-dev/rehearse/internal/practice"
	"github.com/rehearse-dev/rehearse/internal/transcript"
	"github.com/rehearse-dev/rehearse/prompts"
)

type questionData struct {
	Role       string
	Difficulty practice.Difficulty
	Company    string
	Focus      string
}

type reactData struct {
	Position string
	History  string
	Code     string
	Language string
}

// BuildQuestionPrompt asks for exactly one question pitched at the
// configured difficulty.
func BuildQuestionPrompt(cfg practice.Config) (string, error) {
	return render("question", prompts.QuestionTemplate, questionData{
		Role:       cfg.JobRole,
		Difficulty: cfg.DifficultyLevel,
		Company:    cfg.TargetCompany,
		Focus:      cfg.DifficultyLevel.Focus(),
	})
}

// BuildAnswerPrompt asks the interviewer to react to the last answer in
// entries with a single next utterance.
func BuildAnswerPrompt(cfg practice.Config, entries []transcript.Entry) (string, error) {
	return render("react_answer", prompts.ReactAnswerTemplate, reactData{
		Position: cfg.Describe(),
		History:  transcript.Render(entries),
	})
}

// BuildCodePrompt asks the interviewer to react to a code submission as a
// reviewer. history holds the conversation before the submission.
func BuildCodePrompt(cfg practice.Config, history []transcript.Entry, code, language string) (string, error) {
	lang := language
	if lang == "" {
		lang = "plain text"
	}
	return render("react_code", prompts.ReactCodeTemplate, reactData{
		Position: cfg.Describe(),
		History:  transcript.Render(history),
		Code:     transcript.CodeBlock(code, language),
		Language: lang,
	})
}

func render(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", name, err)
	}
	return buf.String(), nil
}
