package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inspiring-reading/exam-backend/internal/response"
	"github.com/inspiring-reading/exam-backend/internal/service"
)

// LoginValidator checks that a token id is the user's latest login.
type LoginValidator interface {
	ValidateLogin(ctx context.Context, userID int, jti string) error
}

// CheckSingleDeviceSession rejects tokens superseded by a newer login or
// revoked by logout. It must run after a RequireXJWT middleware.
func CheckSingleDeviceSession(logins LoginValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := logins.ValidateLogin(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			if errors.Is(err, service.ErrNoLoginSession) || errors.Is(err, service.ErrLoginInvalidated) {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
				return
			}
			_ = c.Error(err)
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		c.Next()
	}
}
