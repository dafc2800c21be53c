// Package grading evaluates learner answers and scores homework submissions.
package grading

import (
	"strings"
	"unicode"

	"github.com/m3rciful/lingobot/internal/models"
)

// Prompt cues that announce an expected sentence opening, e.g.
// "Составьте предложение. Начните с: Ben her gün...". Matching is done on the
// normalized forms, so case and punctuation in the prompt do not matter.
var startCueMarkers = []string{
	"начните с:",
	"начни с:",
	"start with:",
}

// Evaluator normalizes and compares answers against the canonical one.
// The zero value is ready to use.
type Evaluator struct{}

// NewEvaluator returns an Evaluator.
func NewEvaluator() *Evaluator { return &Evaluator{} }

// IsCorrect reports whether the submitted answer matches the question's
// canonical answer. Rules form a non-exclusive union, any match accepts:
//
//  1. exact match of normalized strings (all question types);
//  2. free-text types only: the normalized submission contains the normalized
//     canonical answer as a substring;
//  3. free-text types only: when the prompt carries a "start with:" cue, the
//     normalized submission starts with the normalized cue phrase.
//
// An empty submission is always incorrect.
func (e *Evaluator) IsCorrect(q models.HomeworkQuestion, submitted string) bool {
	answer := Normalize(submitted)
	if answer == "" {
		return false
	}
	expected := Normalize(q.CorrectAnswer)

	if answer == expected {
		return true
	}
	if !q.QuestionType.FreeText() {
		return false
	}
	if expected != "" && strings.Contains(answer, expected) {
		return true
	}
	if cue := startCue(q.QuestionText); cue != "" && strings.HasPrefix(answer, cue) {
		return true
	}
	return false
}

// Normalize lowercases the input and strips every rune that is not a Unicode
// letter or digit. Punctuation, whitespace and symbols all disappear, so
// "Merhaba, dünya!" and "merhaba dünya" normalize identically.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// startCue extracts the normalized cue phrase following a "start with:"
// marker in the prompt, or "" when the prompt has none.
func startCue(prompt string) string {
	lower := strings.ToLower(prompt)
	for _, marker := range startCueMarkers {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		rest := prompt[idx+len(marker):]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[:nl]
		}
		if cue := Normalize(rest); cue != "" {
			return cue
		}
	}
	return ""
}
