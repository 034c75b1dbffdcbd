// Package grading evaluates a submitted answer bundle against an exam.
// It does no I/O and never fails: unusable input for a question only makes
// that question incorrect.
package grading

import (
	"strconv"
	"strings"

	"github.com/inspiring-reading/exam-backend/internal/model"
)

// Outcome is the aggregate result of grading one submission.
type Outcome struct {
	Score      int
	Total      int
	Percentage float64
	Details    []model.AnswerDetail
}

// Grade checks every question of exam in order.
func Grade(exam *model.Exam, bundle AnswerBundle) Outcome {
	out := Outcome{Details: make([]model.AnswerDetail, 0, len(exam.Questions))}

	for _, q := range exam.Questions {
		var (
			answer  string
			correct bool
		)
		if key, ok := KeyFor(q); ok {
			answer, correct = check(q.ID, key, bundle)
		}

		if correct {
			out.Score++
		}
		out.Total++
		out.Details = append(out.Details, model.AnswerDetail{
			QuestionID:   q.ID,
			QuestionText: q.Text,
			QuestionType: q.Type,
			UserAnswer:   answer,
			IsCorrect:    correct,
		})
	}

	out.Percentage = Percentage(out.Score, out.Total)
	return out
}

// Percentage is 100*score/total, or 0 when there is nothing to grade.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}

func check(questionID int64, key AnswerKey, bundle AnswerBundle) (string, bool) {
	switch k := key.(type) {
	case ChoiceKey:
		if k.Multi {
			return checkMulti(k, bundle.All(QuestionField(questionID)))
		}
		raw, _ := bundle.First(QuestionField(questionID))
		return checkSingle(k, raw)
	case TextKey:
		raw, _ := bundle.First(QuestionField(questionID))
		return checkText(k, raw)
	case PairKey:
		return checkPairs(questionID, k, bundle)
	default:
		return "", false
	}
}

// checkSingle accepts only a choice that belongs to the question.
func checkSingle(k ChoiceKey, raw string) (string, bool) {
	id, ok := parseID(raw)
	if !ok {
		return "", false
	}
	c, ok := k.Choices[id]
	if !ok {
		return "", false
	}
	return c.Text, c.IsCorrect
}

// checkMulti requires the selected set to equal the correct set exactly.
// Ids of foreign choices stay in the set, so they make the answer wrong.
func checkMulti(k ChoiceKey, raws []string) (string, bool) {
	selected := make(map[int64]struct{}, len(raws))
	texts := make([]string, 0, len(raws))
	for _, raw := range raws {
		id, ok := parseID(raw)
		if !ok {
			continue
		}
		if _, dup := selected[id]; dup {
			continue
		}
		selected[id] = struct{}{}
		if c, known := k.Choices[id]; known {
			texts = append(texts, c.Text)
		}
	}
	return strings.Join(texts, ", "), setEqual(selected, k.Correct)
}

func checkText(k TextKey, raw string) (string, bool) {
	answer := strings.TrimSpace(raw)
	got := strings.ToLower(answer)
	for _, v := range k.Accepted {
		if got == v {
			return answer, true
		}
	}
	return answer, false
}

// checkPairs is all-or-nothing. A question without pairs is never correct.
func checkPairs(questionID int64, k PairKey, bundle AnswerBundle) (string, bool) {
	if len(k.Pairs) == 0 {
		return "", false
	}
	allCorrect := true
	parts := make([]string, 0, len(k.Pairs))
	for i, pair := range k.Pairs {
		raw, _ := bundle.First(MatchField(questionID, i))
		given := strings.TrimSpace(raw)
		parts = append(parts, pair.Left+" → "+given)
		if given == "" || !strings.EqualFold(given, strings.TrimSpace(pair.Right)) {
			allCorrect = false
		}
	}
	return strings.Join(parts, "; "), allCorrect
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func setEqual(a, b map[int64]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
