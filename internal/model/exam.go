package model

import (
	"sort"
	"time"
)

// Exam represents a reading-comprehension exam with its ordered questions.
type Exam struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	PassageText      string     `json:"passage_text"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	CreatedAt        time.Time  `json:"created_at"`
	Questions        []Question `json:"questions"`
}

// TimeLimit returns the allowed duration of one attempt.
func (e *Exam) TimeLimit() time.Duration {
	return time.Duration(e.TimeLimitMinutes) * time.Minute
}

// CreateExamRequest is the payload for creating an exam with its questions.
type CreateExamRequest struct {
	Title            string                  `json:"title" binding:"required,min=3,max=255"`
	Description      string                  `json:"description" binding:"max=4000"`
	PassageText      string                  `json:"passage_text" binding:"required"`
	TimeLimitMinutes int                     `json:"time_limit_minutes" binding:"required,min=1,max=480"`
	Questions        []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// UpdateExamRequest is the payload for updating exam metadata.
// Questions are not editable once created.
type UpdateExamRequest struct {
	Title            *string `json:"title" binding:"omitempty,min=3,max=255"`
	Description      *string `json:"description" binding:"omitempty,max=4000"`
	PassageText      *string `json:"passage_text" binding:"omitempty,min=1"`
	TimeLimitMinutes *int    `json:"time_limit_minutes" binding:"omitempty,min=1,max=480"`
}

// ExamPayload is the exam paper sent to students (no correct answers).
type ExamPayload struct {
	ExamID           int64                `json:"exam_id"`
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	PassageText      string               `json:"passage_text"`
	TimeLimitMinutes int                  `json:"time_limit_minutes"`
	Questions        []QuestionForStudent `json:"questions"`
}

// ExamSummary is an exam row for listings, without questions.
type ExamSummary struct {
	ID               int64                `json:"id"`
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	TimeLimitMinutes int                  `json:"time_limit_minutes"`
	CreatedAt        time.Time            `json:"created_at"`
	QuestionCount    int                  `json:"question_count"`
	TypeCounts       map[QuestionType]int `json:"type_counts"`
}

// Paper strips every answer key from the exam.
func (e *Exam) Paper() *ExamPayload {
	p := &ExamPayload{
		ExamID:           e.ID,
		Title:            e.Title,
		Description:      e.Description,
		PassageText:      e.PassageText,
		TimeLimitMinutes: e.TimeLimitMinutes,
		Questions:        make([]QuestionForStudent, 0, len(e.Questions)),
	}
	for _, q := range e.Questions {
		sq := QuestionForStudent{ID: q.ID, Type: q.Type, Text: q.Text}
		for _, c := range q.Choices {
			sq.Choices = append(sq.Choices, ChoiceForStudent{ID: c.ID, Text: c.Text})
		}
		if len(q.MatchingPairs) > 0 {
			sq.MatchLeft = make([]string, len(q.MatchingPairs))
			sq.MatchOptions = make([]string, len(q.MatchingPairs))
			for i, pair := range q.MatchingPairs {
				sq.MatchLeft[i] = pair.Left
				sq.MatchOptions[i] = pair.Right
			}
			sort.Strings(sq.MatchOptions)
		}
		p.Questions = append(p.Questions, sq)
	}
	return p
}
