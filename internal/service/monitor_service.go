package service

import (
	"context"
	"sync"

	"github.com/inspiring-reading/exam-backend/internal/model"
)

// MonitorSource reads the state shown on the live monitor.
type MonitorSource interface {
	ListActiveSessions(ctx context.Context, examID int64) ([]model.ActiveSession, error)
	ListCompleted(ctx context.Context, examID int64) ([]model.ExamResultRow, error)
}

// MonitorService orchestrates live exam monitoring business logic.
type MonitorService struct {
	exams  ExamProvider
	source MonitorSource
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(exams ExamProvider, source MonitorSource) *MonitorService {
	return &MonitorService{exams: exams, source: source}
}

// Snapshot returns active sessions and completed results. The two fetches
// run in parallel; the active list is required, completed results are
// best-effort.
func (s *MonitorService) Snapshot(ctx context.Context, examID int64) (*model.MonitorSnapshot, error) {
	if _, err := s.exams.GetExam(ctx, examID); err != nil {
		return nil, err
	}

	var (
		active       []model.ActiveSession
		completed    []model.ExamResultRow
		activeErr    error
		completedErr error
		wg           sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		active, activeErr = s.source.ListActiveSessions(ctx, examID)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		completed, completedErr = s.source.ListCompleted(ctx, examID)
	}()

	wg.Wait()

	if activeErr != nil {
		return nil, activeErr
	}

	snap := &model.MonitorSnapshot{
		ExamID:         examID,
		ActiveSessions: active,
		Completed:      []model.ExamResultRow{},
	}
	if snap.ActiveSessions == nil {
		snap.ActiveSessions = []model.ActiveSession{}
	}
	if completedErr == nil && completed != nil {
		snap.Completed = completed
	}
	return snap, nil
}
