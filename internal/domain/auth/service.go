package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	statusActive            = "active"
	statusPendingActivation = "pending_activation"

	PasswordResetTTL = time.Hour
	OnboardingTTL    = 72 * time.Hour
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	Store       StoreAPI
	Secret      string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	Mailer      Mailer
	From        string
	FrontendURL string
	now         func() time.Time
}

func NewService(store StoreAPI, secret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		Store:      store,
		Secret:     secret,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		now:        time.Now,
	}
}

type TokenPair struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	User         AuthUser `json:"-"`
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	user, err := s.Store.FindUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, pgx.ErrNoRows) {
		return TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, err
	}
	if user.Status != statusActive || user.PasswordHash == "" {
		return TokenPair{}, ErrInvalidCredentials
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	refresh, err := NewOpaqueToken()
	if err != nil {
		return TokenPair{}, err
	}
	sessionID, err := s.Store.CreateSession(ctx, user.ID, HashToken(refresh), s.clock().Add(s.RefreshTTL))
	if err != nil {
		return TokenPair{}, fmt.Errorf("create session: %w", err)
	}
	return s.issue(user, sessionID, refresh)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	session, err := s.Store.SessionByRefreshHash(ctx, HashToken(strings.TrimSpace(refreshToken)))
	if errors.Is(err, pgx.ErrNoRows) {
		return TokenPair{}, ErrSessionExpired
	}
	if err != nil {
		return TokenPair{}, err
	}
	if session.RevokedAt != nil || !session.ExpiresAt.After(s.clock()) {
		return TokenPair{}, ErrSessionExpired
	}
	user, err := s.Store.FindUserByID(ctx, session.UserID)
	if err != nil {
		return TokenPair{}, err
	}
	if user.Status != statusActive {
		return TokenPair{}, ErrSessionExpired
	}

	next, err := NewOpaqueToken()
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.Store.RotateSession(ctx, session.ID, HashToken(next), s.clock().Add(s.RefreshTTL)); err != nil {
		return TokenPair{}, fmt.Errorf("rotate session: %w", err)
	}
	return s.issue(user, session.ID, next)
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.Store.RevokeSession(ctx, sessionID)
}

// SessionActive backs the auth middleware's revocation check.
func (s *Service) SessionActive(ctx context.Context, sessionID string) (bool, error) {
	return s.Store.SessionActive(ctx, sessionID)
}

// Authenticate validates an access token and confirms that its session and
// user are still live.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := ParseToken(s.Secret, token)
	if err != nil {
		return nil, ErrSessionExpired
	}
	if claims.SessionID != "" {
		active, err := s.Store.SessionActive(ctx, claims.SessionID)
		if err != nil {
			return nil, fmt.Errorf("check session: %w", err)
		}
		if !active {
			return nil, ErrSessionExpired
		}
	}
	user, err := s.Store.FindUserByID(ctx, claims.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	if user.Status != statusActive {
		return nil, ErrSessionExpired
	}
	return claims, nil
}

func (s *Service) issue(user AuthUser, sessionID, refresh string) (TokenPair, error) {
	access, err := GenerateToken(s.Secret, Claims{
		UserID:    user.ID,
		RoleID:    user.RoleID,
		RoleName:  user.RoleName,
		OrgID:     user.OrganizationID,
		SessionID: sessionID,
	}, s.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int(s.AccessTTL.Seconds()),
		User:         user,
	}, nil
}

// RequestReset always succeeds so callers cannot probe which emails exist.
func (s *Service) RequestReset(ctx context.Context, email string) error {
	user, err := s.Store.FindUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.Status != statusActive {
		return nil
	}
	token, err := NewOpaqueToken()
	if err != nil {
		return err
	}
	if err := s.Store.CreatePasswordReset(ctx, user.ID, HashToken(token), s.clock().Add(PasswordResetTTL)); err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	link := strings.TrimRight(s.FrontendURL, "/") + "/reset-password?token=" + token
	s.send(ctx, user.Email, "Reset your password",
		fmt.Sprintf("<p>Hello %s,</p><p>Use the link below to reset your password. It expires in one hour.</p><p><a href=\"%s\">%s</a></p>", user.Name, link, link))
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	userID, err := s.Store.ConsumePasswordReset(ctx, HashToken(strings.TrimSpace(token)))
	if err != nil {
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Store.UpdateUserPassword(ctx, userID, hash); err != nil {
		return err
	}
	return s.Store.RevokeUserSessions(ctx, userID)
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.Store.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(user.PasswordHash, current); err != nil {
		return ErrWrongPassword
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.Store.UpdateUserPassword(ctx, userID, hash)
}

// Onboard sets the first password of a pending account and activates it.
func (s *Service) Onboard(ctx context.Context, token, password string) (AuthUser, error) {
	user, err := s.Store.UserByOnboardingToken(ctx, HashToken(strings.TrimSpace(token)))
	if errors.Is(err, pgx.ErrNoRows) {
		return AuthUser{}, ErrInvalidToken
	}
	if err != nil {
		return AuthUser{}, err
	}
	if user.Status != statusPendingActivation {
		return AuthUser{}, ErrUserNotPending
	}
	if user.OnboardingExp == nil || !user.OnboardingExp.After(s.clock()) {
		return AuthUser{}, ErrInvalidToken
	}
	if err := ValidatePassword(password); err != nil {
		return AuthUser{}, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return AuthUser{}, err
	}
	if err := s.Store.ActivateUser(ctx, user.ID, hash); err != nil {
		return AuthUser{}, err
	}
	user.Status = statusActive
	return user, nil
}

func (s *Service) send(ctx context.Context, to, subject, body string) {
	if s.Mailer == nil || to == "" {
		return
	}
	if err := s.Mailer.Send(ctx, s.From, to, subject, body); err != nil {
		slog.Warn("auth email send failed", "err", err)
	}
}
