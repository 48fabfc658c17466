package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"pms/internal/domain/access"
	"pms/internal/domain/auth"
	"pms/internal/transport/http/api"
)

type ctxKey string

const (
	ctxKeyPrincipal ctxKey = "principal"
	ctxKeyClaims    ctxKey = "claims"
	ctxKeyHolder    ctxKey = "principal_holder"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

type PrincipalSource interface {
	Principal(ctx context.Context, userID string) (access.Principal, error)
}

// principalHolder lets Logger see who made the request once Auth has run
// further down the chain.
type principalHolder struct {
	userID string
}

func withPrincipalHolder(ctx context.Context, h *principalHolder) context.Context {
	return context.WithValue(ctx, ctxKeyHolder, h)
}

// Auth resolves a bearer token into a principal. Requests without a usable
// token pass through unauthenticated; RequireAuth rejects them where needed.
func Auth(authn Authenticator, principals PrincipalSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx, err := Authenticate(r.Context(), authn, principals, token)
			if errors.Is(err, auth.ErrSessionExpired) || errors.Is(err, access.ErrUnknownUser) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				slog.Error("authenticate request failed", "err", err, "requestId", GetRequestID(r.Context()))
				api.Fail(w, http.StatusInternalServerError, "auth_error", "authentication failed", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authenticate validates token and returns ctx carrying the caller. The
// WebSocket handler uses it directly for its query-string token.
func Authenticate(ctx context.Context, authn Authenticator, principals PrincipalSource, token string) (context.Context, error) {
	claims, err := authn.Authenticate(ctx, token)
	if err != nil {
		return ctx, err
	}
	p, err := principals.Principal(ctx, claims.UserID)
	if err != nil {
		return ctx, err
	}
	if h, ok := ctx.Value(ctxKeyHolder).(*principalHolder); ok {
		h.userID = p.UserID
	}
	ctx = context.WithValue(ctx, ctxKeyClaims, claims)
	return WithPrincipal(ctx, p), nil
}

// WithPrincipal attaches p to ctx without going through a token.
func WithPrincipal(ctx context.Context, p access.Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

func BearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func GetPrincipal(ctx context.Context) (access.Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(access.Principal)
	return p, ok
}

func GetClaims(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(*auth.Claims)
	return c, ok
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetPrincipal(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
