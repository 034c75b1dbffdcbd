package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/inspiring-reading/exam-backend/internal/grading"
	"github.com/inspiring-reading/exam-backend/internal/middleware"
	"github.com/inspiring-reading/exam-backend/internal/model"
	"github.com/inspiring-reading/exam-backend/internal/response"
	"github.com/rs/zerolog"
)

// maxAnswerBody caps the size of a submission body.
const maxAnswerBody = 1 << 20

// ExamSessions opens attempts and reports their timers.
type ExamSessions interface {
	Start(ctx context.Context, studentID int, examID int64) (*model.ExamSession, error)
	State(ctx context.Context, studentID int, examID int64) (*model.ExamSessionState, error)
	StateOf(sess *model.ExamSession) *model.ExamSessionState
}

// ExamSubmissions grades answers and returns stored results.
type ExamSubmissions interface {
	Submit(ctx context.Context, studentID int, examID int64, bundle grading.AnswerBundle) (*model.Result, error)
	GetResult(ctx context.Context, studentID int, examID int64) (*model.ResultReview, error)
}

// StudentPortalHandler handles student-facing endpoints (exam taking, review).
type StudentPortalHandler struct {
	sessions    ExamSessions
	submissions ExamSubmissions
	log         zerolog.Logger
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(sessions ExamSessions, submissions ExamSubmissions, log zerolog.Logger) *StudentPortalHandler {
	return &StudentPortalHandler{
		sessions:    sessions,
		submissions: submissions,
		log:         log.With().Str("component", "student_portal_handler").Logger(),
	}
}

// StartExam godoc
// POST /api/v1/student/exams/:exam_id/start
// Opens the student's session (or returns the running one) with the paper.
func (h *StudentPortalHandler) StartExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	sess, err := h.sessions.Start(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	if sess.Snapshot == nil {
		failWith(c, h.log, errors.New("session has no exam snapshot"))
		return
	}

	response.Success(c, http.StatusOK, model.StartExamResponse{
		Session: sess,
		State:   h.sessions.StateOf(sess),
		Paper:   sess.Snapshot.Paper(),
	})
}

// GetExamState godoc
// GET /api/v1/student/exams/:exam_id/state
// Lets the client resync its timer after a reload.
func (h *StudentPortalHandler) GetExamState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	state, err := h.sessions.State(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// SubmitExam godoc
// POST /api/v1/student/exams/:exam_id/submit
// Accepts a JSON object or a url-encoded form of answers.
func (h *StudentPortalHandler) SubmitExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	bundle, err := readAnswers(c)
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, map[string]string{"detail": err.Error()})
		return
	}

	res, err := h.submissions.Submit(c.Request.Context(), claims.UserID, examID, bundle)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"result": res})
}

// GetResult godoc
// GET /api/v1/student/exams/:exam_id/result
func (h *StudentPortalHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	examID, ok := examIDParam(c)
	if !ok {
		return
	}

	review, err := h.submissions.GetResult(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, review)
}

// readAnswers decodes the submission body. An empty body is an empty
// submission.
func readAnswers(c *gin.Context) (grading.AnswerBundle, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAnswerBody)

	switch c.ContentType() {
	case binding.MIMEPOSTForm:
		if err := c.Request.ParseForm(); err != nil {
			return nil, err
		}
		return grading.FromForm(c.Request.PostForm), nil
	case binding.MIMEMultipartPOSTForm:
		if err := c.Request.ParseMultipartForm(maxAnswerBody); err != nil {
			return nil, err
		}
		return grading.FromForm(c.Request.MultipartForm.Value), nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return grading.AnswerBundle{}, nil
	}
	return grading.ParseJSON(body)
}
