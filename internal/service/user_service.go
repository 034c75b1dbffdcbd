package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/inspiring-reading/exam-backend/internal/model"
	"github.com/inspiring-reading/exam-backend/internal/repository"
	"github.com/rs/zerolog"
)

// Authenticator hashes passwords and issues login tokens.
type Authenticator interface {
	HashPassword(password string) (string, error)
	CheckPassword(hash, password string) error
	IssueToken(ctx context.Context, u *model.User) (string, error)
}

// UserService handles registration, login and profile lookup.
type UserService struct {
	users UserStore
	auth  Authenticator
	log   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, auth Authenticator, log zerolog.Logger) *UserService {
	return &UserService{
		users: users,
		auth:  auth,
		log:   log.With().Str("component", "user_service").Logger(),
	}
}

// Register creates a student account and logs it in.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.LoginResponse, error) {
	u, err := s.Create(ctx, req.Username, req.Password, model.RoleStudent)
	if err != nil {
		return nil, err
	}
	token, err := s.auth.IssueToken(ctx, u)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, User: *u}, nil
}

// Create stores a new account with a hashed password.
func (s *UserService) Create(ctx context.Context, username, password string, role model.Role) (*model.User, error) {
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		Username:     strings.TrimSpace(username),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info().Int("user_id", u.ID).Str("role", string(u.Role)).Msg("User created")
	return u, nil
}

// ResetPassword replaces the password of an existing account with the
// given role. Tokens already issued stay valid until they expire or the
// user logs in again.
func (s *UserService) ResetPassword(ctx context.Context, username, password string, role model.Role) (*model.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u.Role != role {
		return nil, ErrUserNotFound
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}
	u.PasswordHash = hash
	s.log.Info().Int("user_id", u.ID).Msg("Password reset")
	return u, nil
}

// Login checks credentials for an account of the given role.
// Unknown users, wrong passwords and role mismatches look the same.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest, role model.Role) (*model.LoginResponse, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if u.Role != role {
		return nil, ErrInvalidCredentials
	}

	token, err := s.auth.IssueToken(ctx, u)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, User: *u}, nil
}

// Me returns the profile of the logged-in user.
func (s *UserService) Me(ctx context.Context, userID int) (*model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
