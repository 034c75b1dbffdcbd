package service

import (
	"context"
	"errors"
	"testing"

	"github.com/inspiring-reading/exam-backend/internal/model"
)

func validCreateRequest() model.CreateExamRequest {
	return model.CreateExamRequest{
		Title:            "  Bees  ",
		PassageText:      "Bees live in hives.",
		TimeLimitMinutes: 15,
		Questions: []model.CreateQuestionRequest{
			{Type: model.QuestionTypeSingleChoice, Text: "Where?", Choices: []model.CreateChoiceRequest{
				{Text: "Hive", IsCorrect: true},
				{Text: "Cave"},
			}},
			{Type: model.QuestionTypeFillBlank, Text: "Bees make ___", CorrectAnswerText: "honey"},
			{Type: model.QuestionTypeMatching, Text: "Match", MatchingPairs: []model.MatchingPair{
				{Left: "queen", Right: "eggs"},
			}},
		},
	}
}

func TestCreateExam(t *testing.T) {
	h := newHarness()
	exam, err := h.exams.Create(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if exam.ID == 0 || exam.Title != "Bees" || len(exam.Questions) != 3 {
		t.Fatalf("exam = %+v", exam)
	}
	if exam.Questions[0].Choices[0].ID == 0 {
		t.Error("choice ids not assigned")
	}

	got, err := h.exams.GetExam(context.Background(), exam.ID)
	if err != nil || got.Title != "Bees" {
		t.Fatalf("GetExam = %+v, %v", got, err)
	}
}

func TestCreateExamValidation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*model.CreateExamRequest)
		field string
	}{
		{"choice type without choices", func(r *model.CreateExamRequest) { r.Questions[0].Choices = nil }, "questions[0].choices"},
		{"two correct single choices", func(r *model.CreateExamRequest) { r.Questions[0].Choices[1].IsCorrect = true }, "questions[0].choices"},
		{"blank answer text", func(r *model.CreateExamRequest) { r.Questions[1].CorrectAnswerText = " , " }, "questions[1].correct_answer_text"},
		{"matching without pairs", func(r *model.CreateExamRequest) { r.Questions[2].MatchingPairs = nil }, "questions[2].matching_pairs"},
		{"empty pair side", func(r *model.CreateExamRequest) { r.Questions[2].MatchingPairs[0].Right = " " }, "questions[2].matching_pairs[0]"},
		{"unknown type", func(r *model.CreateExamRequest) { r.Questions[1].Type = "essay" }, "questions[1].question_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			req := validCreateRequest()
			tt.edit(&req)

			_, err := h.exams.Create(context.Background(), req)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, ok := ve.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want key %q", ve.Fields, tt.field)
			}
		})
	}
}

func TestGetExamUsesCache(t *testing.T) {
	h := newHarness(twoQuestionExam())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := h.exams.GetExam(ctx, 1); err != nil {
			t.Fatal(err)
		}
	}
	if h.examStore.gets != 1 {
		t.Errorf("store reads = %d, want 1", h.examStore.gets)
	}

	h.cache.failGets = true
	if _, err := h.exams.GetExam(ctx, 1); err != nil {
		t.Fatalf("cache failure should fall through: %v", err)
	}
	if h.examStore.gets != 2 {
		t.Errorf("store reads = %d, want 2", h.examStore.gets)
	}
}

func TestUpdateAndDeleteInvalidateCache(t *testing.T) {
	h := newHarness(twoQuestionExam())
	ctx := context.Background()

	if _, err := h.exams.GetExam(ctx, 1); err != nil {
		t.Fatal(err)
	}
	title := "Renamed"
	updated, err := h.exams.Update(ctx, 1, model.UpdateExamRequest{Title: &title})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "Renamed" || updated.TimeLimitMinutes != 30 {
		t.Errorf("updated = %+v", updated)
	}
	got, err := h.exams.GetExam(ctx, 1)
	if err != nil || got.Title != "Renamed" {
		t.Fatalf("GetExam after update = %+v, %v", got, err)
	}

	if err := h.exams.Delete(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := h.exams.GetExam(ctx, 1); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("err = %v, want ErrExamNotFound", err)
	}
	if len(h.cache.invalidated) != 2 {
		t.Errorf("invalidations = %v", h.cache.invalidated)
	}

	if err := h.exams.Delete(ctx, 1); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if _, err := h.exams.Update(ctx, 1, model.UpdateExamRequest{}); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("update err = %v", err)
	}
}
