package service

import (
	"context"
	"fmt"
	"math"

	"github.com/inspiring-reading/exam-backend/internal/model"
	"github.com/inspiring-reading/exam-backend/internal/response"
)

// ExamLister lists the exam catalogue.
type ExamLister interface {
	List(ctx context.Context) ([]model.ExamSummary, error)
}

// DashboardService builds the student home view and the admin result tables.
type DashboardService struct {
	exams   ExamLister
	results ResultStore
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(exams ExamLister, results ResultStore) *DashboardService {
	return &DashboardService{exams: exams, results: results}
}

// StudentDashboard lists every exam with the student's result, if any.
func (s *DashboardService) StudentDashboard(ctx context.Context, studentID int) (*model.Dashboard, error) {
	exams, err := s.exams.List(ctx)
	if err != nil {
		return nil, err
	}
	results, err := s.results.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	d := &model.Dashboard{Exams: make([]model.DashboardExam, 0, len(exams))}
	var sum float64
	for _, e := range exams {
		row := model.DashboardExam{Exam: e, TypesSummary: typesSummary(e.TypeCounts)}
		if res, ok := results[e.ID]; ok {
			row.IsTaken = true
			row.Result = res
			d.TotalTaken++
			sum += res.Percentage
		}
		d.Exams = append(d.Exams, row)
	}
	if d.TotalTaken > 0 {
		d.AverageScore = math.Round(sum/float64(d.TotalTaken)*10) / 10
	}
	return d, nil
}

// ExamResults returns a page of results for an exam.
func (s *DashboardService) ExamResults(ctx context.Context, examID int64, page, perPage int) ([]model.ExamResultRow, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	rows, total, err := s.results.ListByExam(ctx, examID, page, perPage)
	if err != nil {
		return nil, nil, fmt.Errorf("list exam results: %w", err)
	}
	if rows == nil {
		rows = []model.ExamResultRow{}
	}

	return rows, response.NewPagination(page, perPage, total), nil
}

// typesSummary renders "<label> (<count>)" in the canonical type order.
func typesSummary(counts map[model.QuestionType]int) []string {
	out := []string{}
	for _, t := range model.AllQuestionTypes {
		if n := counts[t]; n > 0 {
			out = append(out, fmt.Sprintf("%s (%d)", t.Label(), n))
		}
	}
	return out
}
