package service

import (
	"context"
	"time"

	"github.com/inspiring-reading/exam-backend/internal/model"
)

// ExamStore is the persistent exam catalogue.
type ExamStore interface {
	GetByID(ctx context.Context, id int64) (*model.Exam, error)
	CreateWithQuestions(ctx context.Context, e *model.Exam) error
	Update(ctx context.Context, e *model.Exam) error
	Delete(ctx context.Context, id int64) error
	ListSummaries(ctx context.Context) ([]model.ExamSummary, error)
}

// ExamCache holds full exam definitions close to the service.
type ExamCache interface {
	Get(ctx context.Context, examID int64) (*model.Exam, error)
	Set(ctx context.Context, exam *model.Exam) error
	Invalidate(ctx context.Context, examID int64) error
}

// ExamProvider resolves an exam by id. A missing exam is ErrExamNotFound.
type ExamProvider interface {
	GetExam(ctx context.Context, id int64) (*model.Exam, error)
}

// SessionStore persists exam sessions.
type SessionStore interface {
	FindByStudentAndExam(ctx context.Context, studentID int, examID int64) (*model.ExamSession, error)
	// CreateIfAbsent returns the stored session for the pair, creating it
	// from exam when none exists. created reports which case happened.
	CreateIfAbsent(ctx context.Context, studentID int, exam *model.Exam) (sess *model.ExamSession, created bool, err error)
	Deactivate(ctx context.Context, sessionID int64) error
}

// ResultStore persists results. Finalize must reject a second result for the
// same student and exam with repository.ErrResultExists.
type ResultStore interface {
	Exists(ctx context.Context, studentID int, examID int64) (bool, error)
	Finalize(ctx context.Context, sessionID int64, res *model.Result) error
	GetByStudentAndExam(ctx context.Context, studentID int, examID int64) (*model.Result, error)
	ListByStudent(ctx context.Context, studentID int) (map[int64]*model.Result, error)
	ListByExam(ctx context.Context, examID int64, page, perPage int) ([]model.ExamResultRow, int, error)
}

// EventPublisher fans lifecycle events out to live monitors.
type EventPublisher interface {
	Publish(ctx context.Context, ev model.MonitorEvent) error
}

// UserStore persists accounts.
type UserStore interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
}

// Clock returns the current time.
type Clock func() time.Time
