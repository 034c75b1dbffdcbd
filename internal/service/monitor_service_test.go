package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/inspiring-reading/exam-backend/internal/model"
)

type fakeMonitorSource struct {
	active       []model.ActiveSession
	completed    []model.ExamResultRow
	activeErr    error
	completedErr error
}

func (f *fakeMonitorSource) ListActiveSessions(context.Context, int64) ([]model.ActiveSession, error) {
	return f.active, f.activeErr
}

func (f *fakeMonitorSource) ListCompleted(context.Context, int64) ([]model.ExamResultRow, error) {
	return f.completed, f.completedErr
}

func TestMonitorSnapshot(t *testing.T) {
	h := newHarness(twoQuestionExam())
	src := &fakeMonitorSource{
		active:    []model.ActiveSession{{StudentID: 1, Username: "a", StartedAt: time.Now()}},
		completed: []model.ExamResultRow{{StudentID: 2, Username: "b", Percentage: 50}},
	}
	svc := NewMonitorService(h.exams, src)

	snap, err := svc.Snapshot(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.ActiveSessions) != 1 || len(snap.Completed) != 1 || snap.ExamID != 1 {
		t.Errorf("snapshot = %+v", snap)
	}

	src.completedErr = errors.New("slow query")
	snap, err = svc.Snapshot(context.Background(), 1)
	if err != nil {
		t.Fatalf("completed results are best effort: %v", err)
	}
	if snap.Completed == nil || len(snap.Completed) != 0 {
		t.Errorf("completed = %v, want empty", snap.Completed)
	}

	src.activeErr = errors.New("db down")
	if _, err := svc.Snapshot(context.Background(), 1); err == nil {
		t.Error("active session failure should be returned")
	}

	if _, err := svc.Snapshot(context.Background(), 42); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("unknown exam err = %v", err)
	}
}
