package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inspiring-reading/exam-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExamRepository handles exam, question and choice data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// GetByID retrieves an exam with its questions and choices, each in
// (order, id) order.
func (r *ExamRepository) GetByID(ctx context.Context, id int64) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, passage_text, time_limit_minutes, created_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.Description, &e.PassageText, &e.TimeLimitMinutes, &e.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, question_type, text, "order", correct_answer_text, matching_pairs
		 FROM questions
		 WHERE exam_id = $1
		 ORDER BY "order", id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	index := make(map[int64]int)
	for rows.Next() {
		var (
			q     model.Question
			pairs []byte
		)
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Type, &q.Text, &q.Order, &q.CorrectAnswerText, &pairs); err != nil {
			return nil, err
		}
		if len(pairs) > 0 {
			if err := json.Unmarshal(pairs, &q.MatchingPairs); err != nil {
				return nil, fmt.Errorf("decode matching pairs of question %d: %w", q.ID, err)
			}
		}
		index[q.ID] = len(e.Questions)
		e.Questions = append(e.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(e.Questions) == 0 {
		return e, nil
	}

	ids := make([]int64, 0, len(e.Questions))
	for _, q := range e.Questions {
		ids = append(ids, q.ID)
	}

	crows, err := r.pool.Query(ctx,
		`SELECT id, question_id, text, is_correct, "order"
		 FROM choices
		 WHERE question_id = ANY($1)
		 ORDER BY "order", id`, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("query choices: %w", err)
	}
	defer crows.Close()

	for crows.Next() {
		var c model.Choice
		if err := crows.Scan(&c.ID, &c.QuestionID, &c.Text, &c.IsCorrect, &c.Order); err != nil {
			return nil, err
		}
		if i, ok := index[c.QuestionID]; ok {
			e.Questions[i].Choices = append(e.Questions[i].Choices, c)
		}
	}
	return e, crows.Err()
}

// CreateWithQuestions inserts an exam with its nested questions and choices
// in one transaction and fills in the generated ids.
func (r *ExamRepository) CreateWithQuestions(ctx context.Context, e *model.Exam) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO exams (title, description, passage_text, time_limit_minutes)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, created_at`,
			e.Title, e.Description, e.PassageText, e.TimeLimitMinutes,
		).Scan(&e.ID, &e.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert exam: %w", err)
		}

		for i := range e.Questions {
			q := &e.Questions[i]
			q.ExamID = e.ID
			pairs := q.MatchingPairs
			if pairs == nil {
				pairs = []model.MatchingPair{}
			}
			pairsJSON, err := json.Marshal(pairs)
			if err != nil {
				return fmt.Errorf("encode matching pairs: %w", err)
			}
			err = tx.QueryRow(ctx,
				`INSERT INTO questions (exam_id, question_type, text, "order", correct_answer_text, matching_pairs)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 RETURNING id`,
				q.ExamID, q.Type, q.Text, q.Order, q.CorrectAnswerText, pairsJSON,
			).Scan(&q.ID)
			if err != nil {
				return fmt.Errorf("insert question %d: %w", i, err)
			}

			for j := range q.Choices {
				c := &q.Choices[j]
				c.QuestionID = q.ID
				err := tx.QueryRow(ctx,
					`INSERT INTO choices (question_id, text, is_correct, "order")
					 VALUES ($1, $2, $3, $4)
					 RETURNING id`,
					c.QuestionID, c.Text, c.IsCorrect, c.Order,
				).Scan(&c.ID)
				if err != nil {
					return fmt.Errorf("insert choice %d of question %d: %w", j, i, err)
				}
			}
		}
		return nil
	})
}

// Update modifies exam metadata. Questions are untouched.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET title = $1, description = $2, passage_text = $3, time_limit_minutes = $4
		 WHERE id = $5`,
		e.Title, e.Description, e.PassageText, e.TimeLimitMinutes, e.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an exam. Questions, choices, sessions and results cascade.
func (r *ExamRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSummaries returns every exam, newest first, with per-type question counts.
func (r *ExamRepository) ListSummaries(ctx context.Context) ([]model.ExamSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.title, e.description, e.time_limit_minutes, e.created_at,
		        q.question_type, COUNT(q.id)
		 FROM exams e
		 LEFT JOIN questions q ON q.exam_id = e.id
		 GROUP BY e.id, q.question_type
		 ORDER BY e.created_at DESC, e.id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []model.ExamSummary
	index := make(map[int64]int)
	for rows.Next() {
		var (
			s     model.ExamSummary
			typ   *string
			count int
		)
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.TimeLimitMinutes, &s.CreatedAt, &typ, &count); err != nil {
			return nil, err
		}
		i, seen := index[s.ID]
		if !seen {
			s.TypeCounts = make(map[model.QuestionType]int)
			index[s.ID] = len(summaries)
			summaries = append(summaries, s)
			i = len(summaries) - 1
		}
		if typ != nil {
			summaries[i].TypeCounts[model.QuestionType(*typ)] = count
			summaries[i].QuestionCount += count
		}
	}
	return summaries, rows.Err()
}
