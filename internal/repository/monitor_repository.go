package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inspiring-reading/exam-backend/internal/config"
	"github.com/inspiring-reading/exam-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// MonitorRepository provides data access for the live exam monitor.
// It combines PostgreSQL (session and result state) and Redis (event fan-out).
type MonitorRepository struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

// NewMonitorRepository creates a new MonitorRepository.
func NewMonitorRepository(pool *pgxpool.Pool, rdb *redis.Client) *MonitorRepository {
	return &MonitorRepository{pool: pool, rdb: rdb}
}

// ListActiveSessions returns the students currently holding an active session.
func (r *MonitorRepository) ListActiveSessions(ctx context.Context, examID int64) ([]model.ActiveSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT es.student_id, u.username, es.started_at
		 FROM exam_sessions es
		 JOIN users u ON u.id = es.student_id
		 WHERE es.exam_id = $1 AND es.is_active
		 ORDER BY es.started_at`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ActiveSession
	for rows.Next() {
		var a model.ActiveSession
		if err := rows.Scan(&a.StudentID, &a.Username, &a.StartedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListCompleted returns every result of an exam in completion order.
func (r *MonitorRepository) ListCompleted(ctx context.Context, examID int64) ([]model.ExamResultRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT er.student_id, u.username, er.score, er.total_questions, er.percentage, er.completed_at
		 FROM exam_results er
		 JOIN users u ON u.id = er.student_id
		 WHERE er.exam_id = $1
		 ORDER BY er.completed_at`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ExamResultRow
	for rows.Next() {
		var row model.ExamResultRow
		if err := rows.Scan(&row.StudentID, &row.Username, &row.Score, &row.TotalQuestions,
			&row.Percentage, &row.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Publish sends an event to the exam's monitor channel.
func (r *MonitorRepository) Publish(ctx context.Context, ev model.MonitorEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode monitor event: %w", err)
	}
	return r.rdb.Publish(ctx, config.CacheKey.ExamMonitorChannel(ev.ExamID), payload).Err()
}

// Subscribe attaches to the exam's monitor channel. The caller closes it.
func (r *MonitorRepository) Subscribe(ctx context.Context, examID int64) *redis.PubSub {
	return r.rdb.Subscribe(ctx, config.CacheKey.ExamMonitorChannel(examID))
}
