package shared

import (
	"net/http"

	"pms/internal/domain/access"
	"pms/internal/domain/audit"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
)

// Principal returns the authenticated caller or writes a 401.
func Principal(w http.ResponseWriter, r *http.Request) (access.Principal, bool) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return access.Principal{}, false
	}
	return p, true
}

// AuditEntry stamps an audit entry with the caller, request id and client address.
func AuditEntry(r *http.Request, action, entityType, entityID string, before, after any) audit.Entry {
	actor := ""
	if p, ok := middleware.GetPrincipal(r.Context()); ok {
		actor = p.UserID
	}
	return audit.Entry{
		ActorID:    actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		Before:     before,
		After:      after,
	}
}
