package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/inspiring-reading/exam-backend/internal/middleware"
	"github.com/inspiring-reading/exam-backend/internal/response"
	"github.com/inspiring-reading/exam-backend/internal/service"
	"github.com/rs/zerolog"
)

// DashboardHandler serves the student home view and admin result tables.
type DashboardHandler struct {
	dashboardService *service.DashboardService
	log              zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		log:              log.With().Str("component", "dashboard_handler").Logger(),
	}
}

// StudentDashboard godoc
// GET /api/v1/student/dashboard
// Returns every exam with the student's result and average score.
func (h *DashboardHandler) StudentDashboard(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	data, err := h.dashboardService.StudentDashboard(c.Request.Context(), claims.UserID)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, data)
}

// ExamResults godoc
// GET /api/v1/admin/exams/:exam_id/results?page=1&per_page=20
func (h *DashboardHandler) ExamResults(c *gin.Context) {
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	rows, pagination, err := h.dashboardService.ExamResults(c.Request.Context(), examID, page, perPage)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": rows}, pagination)
}
