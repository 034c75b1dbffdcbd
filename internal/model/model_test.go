package model

import (
	"reflect"
	"testing"
	"time"
)

func TestSessionIsExpired(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	s := &ExamSession{StartedAt: start}
	limit := 30 * time.Minute

	tests := []struct {
		elapsed time.Duration
		want    bool
	}{
		{0, false},
		{limit, false},
		{limit + time.Nanosecond, true},
		{limit + 999*time.Millisecond, true},
		{limit + time.Second, true},
		{2 * limit, true},
	}
	for _, tt := range tests {
		if got := s.IsExpired(start.Add(tt.elapsed), limit); got != tt.want {
			t.Errorf("elapsed %v: got %v, want %v", tt.elapsed, got, tt.want)
		}
	}
}

func TestPaperStripsAnswerKeys(t *testing.T) {
	exam := &Exam{
		ID:               3,
		Title:            "Bees",
		TimeLimitMinutes: 20,
		Questions: []Question{
			{ID: 1, Type: QuestionTypeSingleChoice, Text: "pick", Choices: []Choice{
				{ID: 5, Text: "yes", IsCorrect: true},
				{ID: 6, Text: "no"},
			}},
			{ID: 2, Type: QuestionTypeFillBlank, Text: "fill", CorrectAnswerText: "honey"},
			{ID: 3, Type: QuestionTypeMatching, Text: "match", MatchingPairs: []MatchingPair{
				{Left: "queen", Right: "lays eggs"},
				{Left: "drone", Right: "mates"},
			}},
		},
	}

	p := exam.Paper()

	if p.ExamID != 3 || p.TimeLimitMinutes != 20 || len(p.Questions) != 3 {
		t.Fatalf("paper = %+v", p)
	}
	if want := []ChoiceForStudent{{ID: 5, Text: "yes"}, {ID: 6, Text: "no"}}; !reflect.DeepEqual(p.Questions[0].Choices, want) {
		t.Errorf("choices = %+v", p.Questions[0].Choices)
	}
	if !reflect.DeepEqual(p.Questions[2].MatchLeft, []string{"queen", "drone"}) {
		t.Errorf("match left = %v", p.Questions[2].MatchLeft)
	}
	if !reflect.DeepEqual(p.Questions[2].MatchOptions, []string{"lays eggs", "mates"}) {
		t.Errorf("match options = %v", p.Questions[2].MatchOptions)
	}
}

func TestQuestionTypeLabels(t *testing.T) {
	seen := map[string]bool{}
	for _, typ := range AllQuestionTypes {
		l := typ.Label()
		if l == string(typ) || seen[l] {
			t.Errorf("label for %s = %q", typ, l)
		}
		seen[l] = true
	}
	if QuestionType("essay").Valid() {
		t.Error("essay should not be valid")
	}
}
