// Package answer recognises degenerate candidate responses.
package answer

import (
	"slices"
	"strings"
)

// nonAnswers is the closed set of normalized phrases treated as a refusal or
// lack of knowledge. The empty string is included on purpose.
var nonAnswers = map[string]struct{}{
	"i dont know":   {},
	"i don't know":  {},
	"idk":           {},
	"no idea":       {},
	"not sure":      {},
	"skip":          {},
	"pass":          {},
	"n/a":           {},
	"none":          {},
	"cannot answer": {},
	"do not know":   {},
	"dont know":     {},
	"dunno":         {},
	"":              {},
}

// IsNonAnswer reports whether text, trimmed and lower-cased, exactly matches
// one of the known non-answer phrases. There is no partial matching:
// "idk, maybe a hash map" is a real answer.
func IsNonAnswer(text string) bool {
	_, ok := nonAnswers[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// Phrases returns the known non-answer phrases in sorted order, for help
// text and prompts.
func Phrases() []string {
	out := make([]string, 0, len(nonAnswers))
	for p := range nonAnswers {
		if p != "" {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out
}
