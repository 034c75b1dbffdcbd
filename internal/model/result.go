package model

import (
	"time"
)

// AnswerDetail is the per-question audit record stored with a Result.
type AnswerDetail struct {
	QuestionID   int64        `json:"question_id"`
	QuestionText string       `json:"question_text"`
	QuestionType QuestionType `json:"question_type"`
	UserAnswer   string       `json:"user_answer"`
	IsCorrect    bool         `json:"is_correct"`
}

// Result is the single, immutable outcome of a student's submission.
type Result struct {
	ID             int64          `json:"id"`
	StudentID      int            `json:"student_id"`
	ExamID         int64          `json:"exam_id"`
	Score          int            `json:"score"`
	TotalQuestions int            `json:"total_questions"`
	Percentage     float64        `json:"percentage"`
	AnswersDetail  []AnswerDetail `json:"answers_detail"`
	CompletedAt    time.Time      `json:"completed_at"`
}

// ResultReview bundles a result with the exam it belongs to.
type ResultReview struct {
	ExamTitle string  `json:"exam_title"`
	Result    *Result `json:"result"`
}

// DashboardExam is one exam row on the student dashboard.
type DashboardExam struct {
	Exam    ExamSummary `json:"exam"`
	IsTaken bool        `json:"is_taken"`
	Result  *Result     `json:"result,omitempty"`
	// TypesSummary lists "<label> (<count>)" per present question type.
	TypesSummary []string `json:"types_summary"`
}

// Dashboard is the student home view.
type Dashboard struct {
	Exams      []DashboardExam `json:"exams"`
	TotalTaken int             `json:"total_taken"`
	// AverageScore is the mean percentage, rounded to one decimal.
	AverageScore float64 `json:"average_score"`
}
