package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inspiring-reading/exam-backend/internal/grading"
	"github.com/inspiring-reading/exam-backend/internal/metrics"
	"github.com/inspiring-reading/exam-backend/internal/model"
	"github.com/inspiring-reading/exam-backend/internal/repository"
	"github.com/rs/zerolog"
)

// SubmissionService grades a student's one allowed submission and records it.
type SubmissionService struct {
	exams    ExamProvider
	sessions *SessionService
	results  ResultStore
	log      zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	exams ExamProvider,
	sessions *SessionService,
	results ResultStore,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		exams:    exams,
		sessions: sessions,
		results:  results,
		log:      log.With().Str("component", "submission_service").Logger(),
	}
}

// Submit grades bundle against the exam frozen into the student's session
// and stores the result while closing the session. Checks run in order:
// unknown exam, existing result, missing or closed session, expiry.
func (s *SubmissionService) Submit(ctx context.Context, studentID int, examID int64, bundle grading.AnswerBundle) (*model.Result, error) {
	res, err := s.submit(ctx, studentID, examID, bundle)
	metrics.Submissions.WithLabelValues(submitOutcome(err)).Inc()
	return res, err
}

func (s *SubmissionService) submit(ctx context.Context, studentID int, examID int64, bundle grading.AnswerBundle) (*model.Result, error) {
	exam, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	done, err := s.results.Exists(ctx, studentID, examID)
	if err != nil {
		return nil, fmt.Errorf("check result: %w", err)
	}
	if done {
		return nil, ErrAlreadyCompleted
	}

	sess, err := s.sessions.sessions.FindByStudentAndExam(ctx, studentID, examID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	if !sess.IsActive {
		return nil, ErrNoActiveSession
	}

	if s.sessions.IsExpired(sess) {
		if err := s.sessions.expire(ctx, sess); err != nil {
			return nil, err
		}
		return nil, ErrSessionExpired
	}

	graded := sess.Snapshot
	if graded == nil {
		graded = exam
	}

	start := time.Now()
	outcome := grading.Grade(graded, bundle)
	metrics.GradingDuration.Observe(time.Since(start).Seconds())

	res := &model.Result{
		StudentID:      studentID,
		ExamID:         examID,
		Score:          outcome.Score,
		TotalQuestions: outcome.Total,
		Percentage:     outcome.Percentage,
		AnswersDetail:  outcome.Details,
	}

	if err := s.results.Finalize(ctx, sess.ID, res); err != nil {
		switch {
		case errors.Is(err, repository.ErrResultExists):
			s.log.Debug().Int("student_id", studentID).Int64("exam_id", examID).Msg("Concurrent submission lost the race")
			return nil, ErrAlreadyCompleted
		case errors.Is(err, repository.ErrSessionClosed):
			return nil, ErrNoActiveSession
		default:
			return nil, fmt.Errorf("finalize result: %w", err)
		}
	}
	sess.IsActive = false

	metrics.ScorePercentage.Observe(res.Percentage)
	s.log.Info().
		Int("student_id", studentID).
		Int64("exam_id", examID).
		Int("score", res.Score).
		Int("total", res.TotalQuestions).
		Msg("Exam submitted")

	pct := res.Percentage
	s.sessions.publish(ctx, model.MonitorEvent{
		Type:       model.MonitorEventSubmitted,
		ExamID:     examID,
		StudentID:  studentID,
		Percentage: &pct,
	})
	return res, nil
}

// GetResult returns the student's stored result for review.
func (s *SubmissionService) GetResult(ctx context.Context, studentID int, examID int64) (*model.ResultReview, error) {
	exam, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	res, err := s.results.GetByStudentAndExam(ctx, studentID, examID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return &model.ResultReview{ExamTitle: exam.Title, Result: res}, nil
}

func submitOutcome(err error) string {
	switch {
	case err == nil:
		return "graded"
	case errors.Is(err, ErrAlreadyCompleted):
		return "completed"
	case errors.Is(err, ErrNoActiveSession):
		return "no_session"
	case errors.Is(err, ErrSessionExpired):
		return "expired"
	case errors.Is(err, ErrExamNotFound):
		return "not_found"
	default:
		return "error"
	}
}
