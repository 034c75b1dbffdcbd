package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inspiring-reading/exam-backend/internal/middleware"
	"github.com/inspiring-reading/exam-backend/internal/model"
	"github.com/inspiring-reading/exam-backend/internal/response"
	"github.com/inspiring-reading/exam-backend/internal/service"
	"github.com/inspiring-reading/exam-backend/internal/validator"
	"github.com/rs/zerolog"
)

// LoginRevoker ends the login a token belongs to.
type LoginRevoker interface {
	Logout(ctx context.Context, userID int, jti string) error
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	users  *service.UserService
	logins LoginRevoker
	log    zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users *service.UserService, logins LoginRevoker, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		logins: logins,
		log:    log.With().Str("component", "auth_handler").Logger(),
	}
}

// StudentRegister godoc
// POST /api/v1/auth/student/register
// Creates a student account and returns a token for it.
func (h *AuthHandler) StudentRegister(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, res)
}

// StudentLogin godoc
// POST /api/v1/auth/student/login
// A new login invalidates tokens issued to earlier logins.
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	h.login(c, model.RoleStudent)
}

// AdminLogin godoc
// POST /api/v1/auth/admin/login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	h.login(c, model.RoleAdmin)
}

func (h *AuthHandler) login(c *gin.Context, role model.Role) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.users.Login(c.Request.Context(), req, role)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// Logout godoc
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.logins.Logout(c.Request.Context(), claims.UserID, claims.ID); err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	u, err := h.users.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": u})
}
