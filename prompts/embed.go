// Package prompts embeds the prompt templates sent to the completion API.
package prompts

import _ "embed"

//go:embed interview/system.md
var QuestionSystemPrompt string

//go:embed interview/question.md.tmpl
var QuestionTemplate string

//go:embed interview/react_answer.md.tmpl
var ReactAnswerTemplate string

//go:embed interview/react_code.md.tmpl
var ReactCodeTemplate string

//go:embed report/score.md.tmpl
var ReportTemplate string
