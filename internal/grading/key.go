package grading

import (
	"strings"

	"github.com/inspiring-reading/exam-backend/internal/model"
)

// AnswerKey is what a question's submission is checked against. Each
// question type has exactly one key shape.
type AnswerKey interface {
	answerKey()
}

// ChoiceKey decides correctness by the choices flagged correct.
type ChoiceKey struct {
	// Multi accepts a set of choices instead of a single one.
	Multi   bool
	Choices map[int64]model.Choice
	Correct map[int64]struct{}
}

// TextKey accepts any of a list of normalized variants.
type TextKey struct {
	Accepted []string
}

// PairKey requires every pair to be matched with its right-hand value.
type PairKey struct {
	Pairs []model.MatchingPair
}

func (ChoiceKey) answerKey() {}
func (TextKey) answerKey()   {}
func (PairKey) answerKey()   {}

// KeyFor builds the answer key for q. It returns false only for a type
// outside the known set.
func KeyFor(q model.Question) (AnswerKey, bool) {
	switch q.Type {
	case model.QuestionTypeSingleChoice, model.QuestionTypeTrueFalseNotGiven:
		return choiceKey(q, false), true
	case model.QuestionTypeMultipleChoice:
		return choiceKey(q, true), true
	case model.QuestionTypeFillBlank, model.QuestionTypeSentenceCompletion:
		return TextKey{Accepted: variants(q.CorrectAnswerText)}, true
	case model.QuestionTypeMatching:
		return PairKey{Pairs: q.MatchingPairs}, true
	default:
		return nil, false
	}
}

func choiceKey(q model.Question, multi bool) ChoiceKey {
	k := ChoiceKey{
		Multi:   multi,
		Choices: make(map[int64]model.Choice, len(q.Choices)),
		Correct: make(map[int64]struct{}),
	}
	for _, c := range q.Choices {
		k.Choices[c.ID] = c
		if c.IsCorrect {
			k.Correct[c.ID] = struct{}{}
		}
	}
	return k
}

// variants splits a comma-separated list of accepted answers. An empty
// entry, as left by a trailing comma, accepts a blank answer.
func variants(text string) []string {
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, normalize(p))
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
