package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/inspiring-reading/exam-backend/internal/config"
	"github.com/inspiring-reading/exam-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// ExamCache stores full exam definitions in Redis.
type ExamCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewExamCache creates a new ExamCache.
func NewExamCache(rdb *redis.Client, ttl time.Duration) *ExamCache {
	return &ExamCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached exam, or ErrNotFound on a miss.
func (c *ExamCache) Get(ctx context.Context, examID int64) (*model.Exam, error) {
	raw, err := c.rdb.Get(ctx, config.CacheKey.ExamDefinitionKey(examID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get cached exam: %w", err)
	}
	var exam model.Exam
	if err := json.Unmarshal(raw, &exam); err != nil {
		return nil, fmt.Errorf("decode cached exam: %w", err)
	}
	return &exam, nil
}

// Set stores exam until the configured TTL elapses.
func (c *ExamCache) Set(ctx context.Context, exam *model.Exam) error {
	raw, err := json.Marshal(exam)
	if err != nil {
		return fmt.Errorf("encode exam: %w", err)
	}
	return c.rdb.Set(ctx, config.CacheKey.ExamDefinitionKey(exam.ID), raw, c.ttl).Err()
}

// Invalidate drops the cached copy of an exam.
func (c *ExamCache) Invalidate(ctx context.Context, examID int64) error {
	return c.rdb.Del(ctx, config.CacheKey.ExamDefinitionKey(examID)).Err()
}
