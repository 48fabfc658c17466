package authhandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/access"
	"pms/internal/domain/audit"
	"pms/internal/domain/auth"
	"pms/internal/domain/core"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
	"pms/internal/transport/http/shared"
)

// Profiles loads the caller's own directory record for /me.
type Profiles interface {
	GetUser(ctx context.Context, p access.Principal, userID string) (core.User, error)
}

type Handler struct {
	Service  *auth.Service
	Profiles Profiles
	Audit    *audit.Service
}

func NewHandler(service *auth.Service, profiles Profiles, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Profiles: profiles, Audit: auditSvc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type onboardRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type tokenResponse struct {
	auth.TokenPair
	User sessionUser `json:"user"`
}

type sessionUser struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	RoleID         string `json:"role_id"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id,omitempty"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/refresh", h.handleRefresh)
		r.Post("/onboard", h.handleOnboard)
		r.Post("/request-reset", h.handleRequestReset)
		r.Post("/reset-password", h.handleResetPassword)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/logout", h.handleLogout)
			r.Post("/change-password", h.handleChangePassword)
			r.Get("/me", h.handleMe)
			r.Get("/session", h.handleSession)
		})
	})
}

// failAuth reports credential and session errors as 401 and everything else
// through the shared mapping.
func failAuth(w http.ResponseWriter, r *http.Request, err error, code, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
	case errors.Is(err, auth.ErrSessionExpired):
		api.Fail(w, http.StatusUnauthorized, "session_expired", "session expired", reqID)
	default:
		shared.FailError(w, r, err, code, fallback)
	}
}

func newTokenResponse(pair auth.TokenPair) tokenResponse {
	return tokenResponse{TokenPair: pair, User: sessionUser{
		ID:             pair.User.ID,
		Email:          pair.User.Email,
		Name:           pair.User.Name,
		RoleID:         pair.User.RoleID,
		Role:           pair.User.RoleName,
		OrganizationID: pair.User.OrganizationID,
	}}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("password", payload.Password, "password is required")
	if v.Reject(w, r) {
		return
	}

	pair, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		failAuth(w, r, err, "login_failed", "failed to log in")
		return
	}
	entry := shared.AuditEntry(r, "auth.login", "user", pair.User.ID, nil, nil)
	entry.ActorID = pair.User.ID
	h.Audit.Log(r.Context(), entry)
	api.Success(w, newTokenResponse(pair))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var payload refreshRequest
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("refresh_token", payload.RefreshToken, "refresh token is required")
	if v.Reject(w, r) {
		return
	}
	pair, err := h.Service.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		failAuth(w, r, err, "refresh_failed", "failed to refresh session")
		return
	}
	api.Success(w, newTokenResponse(pair))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetClaims(r.Context())
	if claims != nil {
		if err := h.Service.Logout(r.Context(), claims.SessionID); err != nil {
			shared.FailError(w, r, err, "logout_failed", "failed to log out")
			return
		}
		h.Audit.Log(r.Context(), shared.AuditEntry(r, "auth.logout", "user", claims.UserID, nil, nil))
	}
	api.Success(w, map[string]string{"status": "logged_out"})
}

func (h *Handler) handleOnboard(w http.ResponseWriter, r *http.Request) {
	var payload onboardRequest
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("token", payload.Token, "token is required")
	v.Required("password", payload.Password, "password is required")
	if v.Reject(w, r) {
		return
	}
	user, err := h.Service.Onboard(r.Context(), payload.Token, payload.Password)
	if err != nil {
		failAuth(w, r, err, "onboard_failed", "failed to activate account")
		return
	}
	entry := shared.AuditEntry(r, "auth.onboard", "user", user.ID, nil, map[string]string{"status": user.Status})
	entry.ActorID = user.ID
	h.Audit.Log(r.Context(), entry)
	api.Success(w, map[string]string{"status": "activated", "email": user.Email})
}

func (h *Handler) handleRequestReset(w http.ResponseWriter, r *http.Request) {
	var payload resetRequest
	if !shared.Decode(w, r, &payload) {
		return
	}
	if err := h.Service.RequestReset(r.Context(), payload.Email); err != nil {
		shared.FailError(w, r, err, "reset_request_failed", "failed to request password reset")
		return
	}
	api.Success(w, map[string]string{"status": "reset_requested"})
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload resetPasswordRequest
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("token", payload.Token, "token is required")
	v.Required("new_password", payload.NewPassword, "new password is required")
	if v.Reject(w, r) {
		return
	}
	if err := h.Service.ResetPassword(r.Context(), payload.Token, payload.NewPassword); err != nil {
		failAuth(w, r, err, "reset_failed", "failed to reset password")
		return
	}
	api.Success(w, map[string]string{"status": "password_reset"})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	var payload changePasswordRequest
	if !shared.Decode(w, r, &payload) {
		return
	}
	if err := h.Service.ChangePassword(r.Context(), p.UserID, payload.CurrentPassword, payload.NewPassword); err != nil {
		failAuth(w, r, err, "change_password_failed", "failed to change password")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "auth.change_password", "user", p.UserID, nil, nil))
	api.Success(w, map[string]string{"status": "password_changed"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	user, err := h.Profiles.GetUser(r.Context(), p, p.UserID)
	if err != nil {
		shared.FailError(w, r, err, "me_failed", "failed to load profile")
		return
	}
	api.Success(w, map[string]any{
		"user":        user,
		"permissions": p.PermissionList(),
		"scope":       p.Scope,
	})
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	out := map[string]any{
		"user_id":         p.UserID,
		"role_id":         p.RoleID,
		"role":            p.RoleName,
		"organization_id": p.OrgID,
		"scope":           p.Scope,
		"permissions":     p.PermissionList(),
	}
	if claims, ok := middleware.GetClaims(r.Context()); ok {
		out["session_id"] = claims.SessionID
		if claims.ExpiresAt != nil {
			out["expires_at"] = claims.ExpiresAt.Time
		}
	}
	api.Success(w, out)
}
