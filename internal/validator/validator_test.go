package validator

import (
	"errors"
	"testing"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/inspiring-reading/exam-backend/internal/model"
)

func newTestValidator() *govalidator.Validate {
	v := govalidator.New()
	v.SetTagName("binding")
	register(v)
	return v
}

func TestQuestionTypeTag(t *testing.T) {
	v := newTestValidator()

	req := model.CreateExamRequest{
		Title:            "Bees",
		PassageText:      "text",
		TimeLimitMinutes: 10,
		Questions: []model.CreateQuestionRequest{
			{Type: model.QuestionTypeFillBlank, Text: "a", CorrectAnswerText: "x"},
			{Type: "essay", Text: "b"},
		},
	}
	err := v.Struct(req)
	if err == nil {
		t.Fatal("expected validation error for unknown question type")
	}

	fields := TranslateErrors(err)
	msg, ok := fields["questions[1].question_type"]
	if !ok {
		t.Fatalf("fields = %v", fields)
	}
	if msg == "" || msg == "question_type" {
		t.Errorf("message not translated: %q", msg)
	}
	if len(fields) != 1 {
		t.Errorf("only the bad question should be reported: %v", fields)
	}
}

func TestTranslateErrorsDefaultMessages(t *testing.T) {
	v := newTestValidator()

	err := v.Struct(model.RegisterRequest{Username: "a b", Password: "short"})
	fields := TranslateErrors(err)
	if _, ok := fields["username"]; !ok {
		t.Errorf("missing username error: %v", fields)
	}
	if got := fields["password"]; got != "password must be at least 8 characters in length" {
		t.Errorf("password message = %q", got)
	}
}

func TestTranslateErrorsNonValidation(t *testing.T) {
	fields := TranslateErrors(errors.New("unexpected EOF"))
	if fields["detail"] != "unexpected EOF" {
		t.Errorf("fields = %v", fields)
	}
}
