package auth

import (
	"errors"

	"pms/internal/domain/apperr"
)

// ErrInvalidCredentials and ErrSessionExpired map to 401 at the HTTP boundary.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
)

var (
	ErrInvalidToken   = apperr.Validation("invalid or expired token")
	ErrWeakPassword   = apperr.Validation("password must be at least 8 characters and contain letters and digits")
	ErrWrongPassword  = apperr.Validation("current password is incorrect")
	ErrUserNotPending = apperr.Conflict("account is already activated")
)
