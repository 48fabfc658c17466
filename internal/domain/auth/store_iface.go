package auth

import (
	"context"
	"time"
)

type StoreAPI interface {
	FindUserByEmail(ctx context.Context, email string) (AuthUser, error)
	FindUserByID(ctx context.Context, userID string) (AuthUser, error)
	CreateSession(ctx context.Context, userID, refreshTokenHash string, expires time.Time) (string, error)
	SessionByRefreshHash(ctx context.Context, refreshTokenHash string) (Session, error)
	SessionActive(ctx context.Context, sessionID string) (bool, error)
	RotateSession(ctx context.Context, sessionID, newHash string, expires time.Time) error
	RevokeSession(ctx context.Context, sessionID string) error
	RevokeUserSessions(ctx context.Context, userID string) error
	CreatePasswordReset(ctx context.Context, userID, tokenHash string, expires time.Time) error
	ConsumePasswordReset(ctx context.Context, tokenHash string) (string, error)
	UserByOnboardingToken(ctx context.Context, tokenHash string) (AuthUser, error)
	ActivateUser(ctx context.Context, userID, passwordHash string) error
	UpdateUserPassword(ctx context.Context, userID, hash string) error
}
