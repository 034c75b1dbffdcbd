package model

import (
	"time"
)

// ExamSession represents a student's single timed attempt at an exam.
type ExamSession struct {
	ID        int64     `json:"id"`
	StudentID int       `json:"student_id"`
	ExamID    int64     `json:"exam_id"`
	StartedAt time.Time `json:"started_at"`
	IsActive  bool      `json:"is_active"`
	// Snapshot is the exam as it was when the session was created.
	// Grading and the time limit are taken from it.
	Snapshot *Exam `json:"-"`
}

// IsExpired reports whether more than limit has elapsed since StartedAt.
// There is no grace period: one nanosecond past the limit is expired.
func (s *ExamSession) IsExpired(now time.Time, limit time.Duration) bool {
	return now.Sub(s.StartedAt) > limit
}

// Deadline is the last instant at which a submission is still accepted.
func (s *ExamSession) Deadline(limit time.Duration) time.Time {
	return s.StartedAt.Add(limit)
}

// ExamSessionState is the client-side timer view of an active session.
type ExamSessionState struct {
	ExamID           int64     `json:"exam_id"`
	StudentID        int       `json:"student_id"`
	StartedAt        time.Time `json:"started_at"`
	Deadline         time.Time `json:"deadline"`
	RemainingSeconds int64     `json:"remaining_seconds"`
	IsActive         bool      `json:"is_active"`
}

// StartExamResponse is returned when a student opens an exam.
type StartExamResponse struct {
	Session *ExamSession      `json:"session"`
	State   *ExamSessionState `json:"state"`
	Paper   *ExamPayload      `json:"paper"`
}
