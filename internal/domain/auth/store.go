package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type AuthUser struct {
	ID             string
	Email          string
	Name           string
	Status         string
	RoleID         string
	RoleName       string
	OrganizationID string
	PasswordHash   string
	OnboardingExp  *time.Time
}

type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	RevokedAt *time.Time
}

const authUserColumns = `
    u.id, u.email, u.name, u.status, COALESCE(u.role_id::text, ''), COALESCE(r.name, ''),
    COALESCE(u.organization_id::text, ''), COALESCE(u.password_hash, ''), u.onboarding_token_expires_at
`

func scanAuthUser(row pgx.Row) (AuthUser, error) {
	var out AuthUser
	err := row.Scan(&out.ID, &out.Email, &out.Name, &out.Status, &out.RoleID, &out.RoleName,
		&out.OrganizationID, &out.PasswordHash, &out.OnboardingExp)
	return out, err
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	return scanAuthUser(s.DB.QueryRow(ctx, `
    SELECT `+authUserColumns+`
    FROM users u
    LEFT JOIN roles r ON u.role_id = r.id
    WHERE lower(u.email) = lower($1)
  `, email))
}

func (s *Store) FindUserByID(ctx context.Context, userID string) (AuthUser, error) {
	return scanAuthUser(s.DB.QueryRow(ctx, `
    SELECT `+authUserColumns+`
    FROM users u
    LEFT JOIN roles r ON u.role_id = r.id
    WHERE u.id = $1
  `, userID))
}

func (s *Store) CreateSession(ctx context.Context, userID, refreshTokenHash string, expires time.Time) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO sessions (user_id, refresh_token_hash, expires_at)
    VALUES ($1,$2,$3)
    RETURNING id
  `, userID, refreshTokenHash, expires).Scan(&id)
	return id, err
}

func (s *Store) SessionByRefreshHash(ctx context.Context, refreshTokenHash string) (Session, error) {
	var out Session
	err := s.DB.QueryRow(ctx, `
    SELECT id, user_id, expires_at, revoked_at
    FROM sessions
    WHERE refresh_token_hash = $1
  `, refreshTokenHash).Scan(&out.ID, &out.UserID, &out.ExpiresAt, &out.RevokedAt)
	return out, err
}

func (s *Store) SessionActive(ctx context.Context, sessionID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM sessions
    WHERE id = $1 AND expires_at > now() AND revoked_at IS NULL
  `, sessionID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) RotateSession(ctx context.Context, sessionID, newHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE sessions
    SET refresh_token_hash = $1, expires_at = $2, rotated_at = now()
    WHERE id = $3
  `, newHash, expires, sessionID)
	return err
}

func (s *Store) RevokeSession(ctx context.Context, sessionID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL", sessionID)
	return err
}

func (s *Store) RevokeUserSessions(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL", userID)
	return err
}

func (s *Store) CreatePasswordReset(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, "INSERT INTO password_resets (user_id, token_hash, expires_at) VALUES ($1, $2, $3)", userID, tokenHash, expires)
	return err
}

// ConsumePasswordReset marks a valid reset token used and returns its user in one statement.
func (s *Store) ConsumePasswordReset(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
    UPDATE password_resets
    SET used_at = now()
    WHERE token_hash = $1 AND expires_at > now() AND used_at IS NULL
    RETURNING user_id
  `, tokenHash).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrInvalidToken
	}
	return userID, err
}

func (s *Store) UserByOnboardingToken(ctx context.Context, tokenHash string) (AuthUser, error) {
	return scanAuthUser(s.DB.QueryRow(ctx, `
    SELECT `+authUserColumns+`
    FROM users u
    LEFT JOIN roles r ON u.role_id = r.id
    WHERE u.onboarding_token_hash = $1
  `, tokenHash))
}

func (s *Store) ActivateUser(ctx context.Context, userID, passwordHash string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users
    SET password_hash = $1, status = 'active', onboarding_token_hash = NULL,
        onboarding_token_expires_at = NULL, email_verified_at = now(), updated_at = now()
    WHERE id = $2
  `, passwordHash, userID)
	return err
}

func (s *Store) UpdateUserPassword(ctx context.Context, userID, hash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2", hash, userID)
	return err
}
