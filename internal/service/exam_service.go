package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/inspiring-reading/exam-backend/internal/model"
	"github.com/inspiring-reading/exam-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ExamService handles exam authoring and the Redis read-through cache.
type ExamService struct {
	examRepo ExamStore
	cache    ExamCache
	log      zerolog.Logger
}

// NewExamService creates a new ExamService. cache may be nil.
func NewExamService(examRepo ExamStore, cache ExamCache, log zerolog.Logger) *ExamService {
	return &ExamService{
		examRepo: examRepo,
		cache:    cache,
		log:      log.With().Str("component", "exam_service").Logger(),
	}
}

// GetExam returns the full exam, answer keys included. Cache failures are
// logged and fall through to the database.
func (s *ExamService) GetExam(ctx context.Context, id int64) (*model.Exam, error) {
	if s.cache != nil {
		exam, err := s.cache.Get(ctx, id)
		if err == nil {
			return exam, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn().Err(err).Int64("exam_id", id).Msg("Exam cache read failed")
		}
	}

	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, exam); err != nil {
			s.log.Warn().Err(err).Int64("exam_id", id).Msg("Exam cache write failed")
		}
	}
	return exam, nil
}

// List returns every exam with question counts.
func (s *ExamService) List(ctx context.Context) ([]model.ExamSummary, error) {
	exams, err := s.examRepo.ListSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	if exams == nil {
		exams = []model.ExamSummary{}
	}
	return exams, nil
}

// Create validates and stores a new exam with its questions.
func (s *ExamService) Create(ctx context.Context, req model.CreateExamRequest) (*model.Exam, error) {
	if err := validateQuestions(req.Questions); err != nil {
		return nil, err
	}

	exam := &model.Exam{
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		PassageText:      req.PassageText,
		TimeLimitMinutes: req.TimeLimitMinutes,
		Questions:        make([]model.Question, 0, len(req.Questions)),
	}
	for _, qr := range req.Questions {
		q := model.Question{
			Type:  qr.Type,
			Text:  qr.Text,
			Order: qr.Order,
		}
		switch {
		case qr.Type.UsesChoices():
			for _, cr := range qr.Choices {
				q.Choices = append(q.Choices, model.Choice{Text: cr.Text, IsCorrect: cr.IsCorrect, Order: cr.Order})
			}
		case qr.Type.UsesAnswerText():
			q.CorrectAnswerText = qr.CorrectAnswerText
		case qr.Type == model.QuestionTypeMatching:
			q.MatchingPairs = qr.MatchingPairs
		}
		exam.Questions = append(exam.Questions, q)
	}

	if err := s.examRepo.CreateWithQuestions(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.log.Info().Int64("exam_id", exam.ID).Int("questions", len(exam.Questions)).Msg("Exam created")
	return exam, nil
}

// Update changes exam metadata. Running sessions keep their snapshot.
func (s *ExamService) Update(ctx context.Context, id int64, req model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	if req.Title != nil {
		exam.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.PassageText != nil {
		exam.PassageText = *req.PassageText
	}
	if req.TimeLimitMinutes != nil {
		exam.TimeLimitMinutes = *req.TimeLimitMinutes
	}

	if err := s.examRepo.Update(ctx, exam); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("update exam: %w", err)
	}
	s.invalidate(ctx, id)
	return exam, nil
}

// Delete removes an exam with everything attached to it.
func (s *ExamService) Delete(ctx context.Context, id int64) error {
	if err := s.examRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExamNotFound
		}
		return fmt.Errorf("delete exam: %w", err)
	}
	s.invalidate(ctx, id)
	s.log.Info().Int64("exam_id", id).Msg("Exam deleted")
	return nil
}

func (s *ExamService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn().Err(err).Int64("exam_id", id).Msg("Exam cache invalidation failed")
	}
}

// validateQuestions enforces the per-type content rules.
func validateQuestions(questions []model.CreateQuestionRequest) error {
	fields := make(map[string]string)
	for i, q := range questions {
		prefix := fmt.Sprintf("questions[%d]", i)
		switch {
		case q.Type.UsesChoices():
			if len(q.Choices) == 0 {
				fields[prefix+".choices"] = "choices are required for " + string(q.Type)
				continue
			}
			correct := 0
			for _, c := range q.Choices {
				if c.IsCorrect {
					correct++
				}
			}
			if q.Type != model.QuestionTypeMultipleChoice && correct != 1 {
				fields[prefix+".choices"] = "exactly one choice must be correct"
			}
		case q.Type.UsesAnswerText():
			if strings.Trim(q.CorrectAnswerText, " ,\t") == "" {
				fields[prefix+".correct_answer_text"] = "correct_answer_text is required for " + string(q.Type)
			}
		case q.Type == model.QuestionTypeMatching:
			if len(q.MatchingPairs) == 0 {
				fields[prefix+".matching_pairs"] = "matching_pairs are required for matching"
				continue
			}
			for j, p := range q.MatchingPairs {
				if strings.TrimSpace(p.Left) == "" || strings.TrimSpace(p.Right) == "" {
					fields[fmt.Sprintf("%s.matching_pairs[%d]", prefix, j)] = "left and right are required"
				}
			}
		default:
			fields[prefix+".question_type"] = "unknown question type"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
