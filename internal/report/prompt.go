package report

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/rehearse-dev/rehearse/internal/history"
	"github.com/rehearse-dev/rehearse/internal/practice"
	"github.com/rehearse-dev/rehearse/prompts"
)

type promptData struct {
	Position   string
	Table      string
	Pairs      int
	NonAnswers int
	HasCode    bool
}

// BuildPrompt renders the scoring prompt. The table is embedded verbatim.
func BuildPrompt(cfg practice.Config, pairs []history.QAPair, table string) (string, error) {
	data := promptData{
		Position: cfg.Describe(),
		Table:    table,
		Pairs:    len(pairs),
		HasCode:  HasCode(pairs),
	}
	for _, p := range pairs {
		if p.NonAnswer {
			data.NonAnswers++
		}
	}

	tmpl, err := template.New("report_score").Parse(prompts.ReportTemplate)
	if err != nil {
		return "", fmt.Errorf("parse report template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report template: %w", err)
	}
	return buf.String(), nil
}
