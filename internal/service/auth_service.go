package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/inspiring-reading/exam-backend/internal/config"
	"github.com/inspiring-reading/exam-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Session errors.
var (
	ErrNoLoginSession    = errors.New("no active login session")
	ErrLoginInvalidated  = errors.New("login session invalidated")
	errInvalidTokenClaim = errors.New("invalid token claims")
)

// TokenType distinguishes student vs admin tokens.
type TokenType string

const (
	TokenTypeStudent TokenType = "student"
	TokenTypeAdmin   TokenType = "admin"
)

const tokenIssuer = "exam-backend"

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
}

// AuthService handles password hashing, JWT and the single-device login record.
type AuthService struct {
	cfg *config.Config
	rdb *redis.Client
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client) *AuthService {
	return &AuthService{cfg: cfg, rdb: rdb}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// IssueToken signs a JWT for u and records its id as the user's only valid
// login. Any token issued earlier for the same user stops working.
func (s *AuthService) IssueToken(ctx context.Context, u *model.User) (string, error) {
	jti := uuid.NewString()
	signed, err := s.sign(u, jti, time.Now())
	if err != nil {
		return "", err
	}

	if err := s.rdb.Set(ctx, config.CacheKey.UserLoginKey(u.ID), jti, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("store login: %w", err)
	}
	return signed, nil
}

func (s *AuthService) sign(u *model.User, jti string, now time.Time) (string, error) {
	tokenType := TokenTypeStudent
	if u.Role == model.RoleAdmin {
		tokenType = TokenTypeAdmin
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    tokenIssuer,
			Subject:   strconv.Itoa(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType: tokenType,
		UserID:    u.ID,
		Username:  u.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (any, error) { return []byte(s.cfg.JWTSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.UserID == 0 || (claims.TokenType != TokenTypeStudent && claims.TokenType != TokenTypeAdmin) {
		return nil, errInvalidTokenClaim
	}
	return claims, nil
}

// ValidateLogin checks that jti is the user's most recent login.
func (s *AuthService) ValidateLogin(ctx context.Context, userID int, jti string) error {
	stored, err := s.rdb.Get(ctx, config.CacheKey.UserLoginKey(userID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrNoLoginSession
	case err != nil:
		return fmt.Errorf("check login: %w", err)
	case stored != jti:
		return ErrLoginInvalidated
	}
	return nil
}

// revokeLogin deletes the login record only while it still names the
// token being logged out.
var revokeLogin = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Logout ends the login identified by jti. A newer login on another device
// is left alone.
func (s *AuthService) Logout(ctx context.Context, userID int, jti string) error {
	if err := revokeLogin.Run(ctx, s.rdb, []string{config.CacheKey.UserLoginKey(userID)}, jti).Err(); err != nil {
		return fmt.Errorf("revoke login: %w", err)
	}
	return nil
}
