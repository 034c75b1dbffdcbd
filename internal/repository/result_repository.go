package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inspiring-reading/exam-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResultRepository handles exam result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Exists reports whether the student already has a result for the exam.
func (r *ResultRepository) Exists(ctx context.Context, studentID int, examID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM exam_results WHERE student_id = $1 AND exam_id = $2)`,
		studentID, examID,
	).Scan(&exists)
	return exists, err
}

// Finalize stores res and closes the session in one transaction. The session
// row is locked first; a closed session yields ErrSessionClosed and a
// duplicate result yields ErrResultExists. Nothing is written in either case.
func (r *ResultRepository) Finalize(ctx context.Context, sessionID int64, res *model.Result) error {
	details, err := json.Marshal(res.AnswersDetail)
	if err != nil {
		return fmt.Errorf("encode answers detail: %w", err)
	}

	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var active bool
		err := tx.QueryRow(ctx,
			`SELECT is_active FROM exam_sessions WHERE id = $1 FOR UPDATE`, sessionID,
		).Scan(&active)
		if err != nil {
			return fmt.Errorf("lock session: %w", notFound(err))
		}

		// The insert runs before the active check so a session closed by a
		// successful submission reports ErrResultExists.
		err = tx.QueryRow(ctx,
			`INSERT INTO exam_results (student_id, exam_id, score, total_questions, percentage, answers_detail)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id, completed_at`,
			res.StudentID, res.ExamID, res.Score, res.TotalQuestions, res.Percentage, details,
		).Scan(&res.ID, &res.CompletedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrResultExists
			}
			return fmt.Errorf("insert result: %w", err)
		}
		if !active {
			return ErrSessionClosed
		}

		if _, err := tx.Exec(ctx,
			`UPDATE exam_sessions SET is_active = FALSE WHERE id = $1`, sessionID,
		); err != nil {
			return fmt.Errorf("close session: %w", err)
		}
		return nil
	})
}

const resultColumns = `id, student_id, exam_id, score, total_questions, percentage, answers_detail, completed_at`

func scanResult(row pgx.Row) (*model.Result, error) {
	res := &model.Result{}
	var details []byte
	if err := row.Scan(&res.ID, &res.StudentID, &res.ExamID, &res.Score, &res.TotalQuestions,
		&res.Percentage, &details, &res.CompletedAt); err != nil {
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &res.AnswersDetail); err != nil {
			return nil, fmt.Errorf("decode answers detail of result %d: %w", res.ID, err)
		}
	}
	return res, nil
}

// GetByStudentAndExam retrieves a single result.
func (r *ResultRepository) GetByStudentAndExam(ctx context.Context, studentID int, examID int64) (*model.Result, error) {
	res, err := scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM exam_results WHERE student_id = $1 AND exam_id = $2`,
		studentID, examID,
	))
	if err != nil {
		return nil, notFound(err)
	}
	return res, nil
}

// ListByStudent returns every result of a student keyed by exam id.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentID int) (map[int64]*model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM exam_results WHERE student_id = $1`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]*model.Result)
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out[res.ExamID] = res
	}
	return out, rows.Err()
}

// ListByExam returns a page of results for an exam with usernames, best first.
func (r *ResultRepository) ListByExam(ctx context.Context, examID int64, page, perPage int) ([]model.ExamResultRow, int, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_results WHERE exam_id = $1`, examID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT er.student_id, u.username, er.score, er.total_questions, er.percentage, er.completed_at
		 FROM exam_results er
		 JOIN users u ON u.id = er.student_id
		 WHERE er.exam_id = $1
		 ORDER BY er.percentage DESC, er.completed_at ASC
		 LIMIT $2 OFFSET $3`, examID, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []model.ExamResultRow
	for rows.Next() {
		var row model.ExamResultRow
		if err := rows.Scan(&row.StudentID, &row.Username, &row.Score, &row.TotalQuestions,
			&row.Percentage, &row.CompletedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, row)
	}
	return results, total, rows.Err()
}
