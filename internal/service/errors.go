package service

import (
	"errors"
	"sort"
	"strings"
)

// Exam lifecycle errors.
var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrAlreadyCompleted = errors.New("exam already completed")
	ErrSessionExpired   = errors.New("exam session expired")
	ErrNoActiveSession  = errors.New("no active exam session")
	ErrResultNotFound   = errors.New("result not found")
)

// Account errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUserNotFound       = errors.New("user not found")
)

// ValidationError carries per-field messages for content the binding layer
// cannot check on its own.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
