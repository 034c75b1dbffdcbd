package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inspiring-reading/exam-backend/internal/metrics"
	"github.com/inspiring-reading/exam-backend/internal/model"
	"github.com/inspiring-reading/exam-backend/internal/repository"
	"github.com/rs/zerolog"
)

// SessionService owns the single-attempt, timed session lifecycle.
type SessionService struct {
	exams    ExamProvider
	sessions SessionStore
	results  ResultStore
	events   EventPublisher
	now      Clock
	log      zerolog.Logger
}

// NewSessionService creates a new SessionService. events may be nil.
func NewSessionService(
	exams ExamProvider,
	sessions SessionStore,
	results ResultStore,
	events EventPublisher,
	now Clock,
	log zerolog.Logger,
) *SessionService {
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		exams:    exams,
		sessions: sessions,
		results:  results,
		events:   events,
		now:      now,
		log:      log.With().Str("component", "session_service").Logger(),
	}
}

// Start returns the student's session for the exam, creating it on first
// call. A student with a result gets ErrAlreadyCompleted and no session is
// created. An expired session is closed and ErrSessionExpired returned; a
// closed session is never reopened.
func (s *SessionService) Start(ctx context.Context, studentID int, examID int64) (*model.ExamSession, error) {
	exam, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		s.countStart(err)
		return nil, err
	}

	done, err := s.results.Exists(ctx, studentID, examID)
	if err != nil {
		metrics.SessionStarts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("check result: %w", err)
	}
	if done {
		metrics.SessionStarts.WithLabelValues("completed").Inc()
		return nil, ErrAlreadyCompleted
	}

	sess, created, err := s.sessions.CreateIfAbsent(ctx, studentID, exam)
	if err != nil {
		metrics.SessionStarts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("create session: %w", err)
	}

	if !sess.IsActive {
		metrics.SessionStarts.WithLabelValues("expired").Inc()
		return nil, ErrSessionExpired
	}
	if s.IsExpired(sess) {
		if err := s.expire(ctx, sess); err != nil {
			metrics.SessionStarts.WithLabelValues("error").Inc()
			return nil, err
		}
		metrics.SessionStarts.WithLabelValues("expired").Inc()
		return nil, ErrSessionExpired
	}

	if created {
		metrics.SessionStarts.WithLabelValues("created").Inc()
		s.log.Info().Int("student_id", studentID).Int64("exam_id", examID).Msg("Exam session started")
		s.publish(ctx, model.MonitorEvent{Type: model.MonitorEventStarted, ExamID: examID, StudentID: studentID})
	} else {
		metrics.SessionStarts.WithLabelValues("resumed").Inc()
	}
	return sess, nil
}

// IsExpired reports whether the session has outlived its exam's time limit.
func (s *SessionService) IsExpired(sess *model.ExamSession) bool {
	return sess.IsExpired(s.now(), timeLimit(sess))
}

// Close deactivates a session. Closing twice is harmless.
func (s *SessionService) Close(ctx context.Context, sess *model.ExamSession) error {
	if err := s.sessions.Deactivate(ctx, sess.ID); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	sess.IsActive = false
	return nil
}

// State reports the timer view of the student's active session.
func (s *SessionService) State(ctx context.Context, studentID int, examID int64) (*model.ExamSessionState, error) {
	if _, err := s.exams.GetExam(ctx, examID); err != nil {
		return nil, err
	}
	sess, err := s.sessions.FindByStudentAndExam(ctx, studentID, examID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	if !sess.IsActive {
		return nil, ErrNoActiveSession
	}
	return s.StateOf(sess), nil
}

// StateOf computes the timer view of sess at the current time.
func (s *SessionService) StateOf(sess *model.ExamSession) *model.ExamSessionState {
	limit := timeLimit(sess)
	deadline := sess.Deadline(limit)
	remaining := int64(deadline.Sub(s.now()) / time.Second)
	if remaining < 0 || s.IsExpired(sess) {
		remaining = 0
	}
	return &model.ExamSessionState{
		ExamID:           sess.ExamID,
		StudentID:        sess.StudentID,
		StartedAt:        sess.StartedAt,
		Deadline:         deadline,
		RemainingSeconds: remaining,
		IsActive:         sess.IsActive,
	}
}

// expire closes an outlived session and tells the monitors.
func (s *SessionService) expire(ctx context.Context, sess *model.ExamSession) error {
	if err := s.Close(ctx, sess); err != nil {
		return err
	}
	s.log.Info().Int("student_id", sess.StudentID).Int64("exam_id", sess.ExamID).Msg("Exam session expired")
	s.publish(ctx, model.MonitorEvent{Type: model.MonitorEventExpired, ExamID: sess.ExamID, StudentID: sess.StudentID})
	return nil
}

func (s *SessionService) publish(ctx context.Context, ev model.MonitorEvent) {
	if s.events == nil {
		return
	}
	ev.At = s.now()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event", string(ev.Type)).Msg("Failed to publish monitor event")
	}
}

func (s *SessionService) countStart(err error) {
	if errors.Is(err, ErrExamNotFound) {
		metrics.SessionStarts.WithLabelValues("not_found").Inc()
		return
	}
	metrics.SessionStarts.WithLabelValues("error").Inc()
}

// timeLimit takes the limit from the snapshot frozen into the session.
func timeLimit(sess *model.ExamSession) time.Duration {
	if sess.Snapshot == nil {
		return 0
	}
	return sess.Snapshot.TimeLimit()
}
