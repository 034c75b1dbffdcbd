package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inspiring-reading/exam-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExamSessionRepository handles exam session data access.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

// FindByStudentAndExam retrieves the session of a student for an exam,
// including the exam snapshot taken when it was created.
func (r *ExamSessionRepository) FindByStudentAndExam(ctx context.Context, studentID int, examID int64) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	var snapshot []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, student_id, exam_id, started_at, is_active, exam_snapshot
		 FROM exam_sessions
		 WHERE student_id = $1 AND exam_id = $2`, studentID, examID,
	).Scan(&s.ID, &s.StudentID, &s.ExamID, &s.StartedAt, &s.IsActive, &snapshot)
	if err != nil {
		return nil, notFound(err)
	}
	if err := decodeSnapshot(snapshot, s); err != nil {
		return nil, err
	}
	return s, nil
}

// CreateIfAbsent inserts an active session holding a snapshot of exam. When a
// session for the pair already exists the stored row is returned unchanged,
// so concurrent callers all observe the first writer's session.
func (r *ExamSessionRepository) CreateIfAbsent(ctx context.Context, studentID int, exam *model.Exam) (*model.ExamSession, bool, error) {
	snapshot, err := json.Marshal(exam)
	if err != nil {
		return nil, false, fmt.Errorf("encode exam snapshot: %w", err)
	}

	s := &model.ExamSession{StudentID: studentID, ExamID: exam.ID, IsActive: true, Snapshot: exam}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (student_id, exam_id, is_active, exam_snapshot)
		 VALUES ($1, $2, TRUE, $3)
		 ON CONFLICT (student_id, exam_id) DO NOTHING
		 RETURNING id, started_at`,
		studentID, exam.ID, snapshot,
	).Scan(&s.ID, &s.StartedAt)
	if err == nil {
		return s, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("insert session: %w", err)
	}

	existing, err := r.FindByStudentAndExam(ctx, studentID, exam.ID)
	if err != nil {
		return nil, false, fmt.Errorf("concurrent start detected, but fetch failed: %w", err)
	}
	return existing, false, nil
}

// Deactivate closes a session. Closing an already closed session is a no-op.
func (r *ExamSessionRepository) Deactivate(ctx context.Context, sessionID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions SET is_active = FALSE WHERE id = $1`, sessionID)
	return err
}

func decodeSnapshot(raw []byte, s *model.ExamSession) error {
	if len(raw) == 0 {
		return nil
	}
	var exam model.Exam
	if err := json.Unmarshal(raw, &exam); err != nil {
		return fmt.Errorf("decode exam snapshot of session %d: %w", s.ID, err)
	}
	s.Snapshot = &exam
	return nil
}
