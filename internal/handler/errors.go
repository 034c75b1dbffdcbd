package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/inspiring-reading/exam-backend/internal/response"
	"github.com/inspiring-reading/exam-backend/internal/service"
	"github.com/rs/zerolog"
)

// statusFor maps a service error to its HTTP status and error code.
func statusFor(err error) (int, response.ErrCode) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, response.ErrValidation
	case errors.Is(err, service.ErrExamNotFound):
		return http.StatusNotFound, response.ErrExamNotFound
	case errors.Is(err, service.ErrResultNotFound):
		return http.StatusNotFound, response.ErrResultNotFound
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, response.ErrNotFound
	case errors.Is(err, service.ErrAlreadyCompleted):
		return http.StatusConflict, response.ErrAlreadyCompleted
	case errors.Is(err, service.ErrSessionExpired):
		return http.StatusGone, response.ErrSessionExpired
	case errors.Is(err, service.ErrNoActiveSession):
		return http.StatusForbidden, response.ErrNoActiveSession
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, response.ErrInvalidCredentials
	case errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict, response.ErrUsernameTaken
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// failWith writes the response for a service error. Unexpected errors are
// logged with the request id.
func failWith(c *gin.Context, log zerolog.Logger, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		reqID, _ := c.Get(response.ContextKeyRequestID)
		log.Error().Err(err).Interface("request_id", reqID).Str("path", c.FullPath()).Msg("Request failed")
	}

	var ve *service.ValidationError
	if errors.As(err, &ve) {
		response.FailWithFields(c, status, code, ve.Fields)
		return
	}
	response.Fail(c, status, code)
}

// examIDParam reads the :exam_id path parameter.
func examIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("exam_id"), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
