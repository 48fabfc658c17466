package notificationshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/audit"
	"pms/internal/domain/auth"
	"pms/internal/domain/notifications"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
	"pms/internal/transport/http/shared"
)

type Handler struct {
	Service    *notifications.Service
	Hub        *notifications.Hub
	Audit      *audit.Service
	Authn      middleware.Authenticator
	Principals middleware.PrincipalSource
	// AllowedOrigins gates the WebSocket handshake; empty or "*" allows any.
	AllowedOrigins []string
}

func NewHandler(service *notifications.Service, hub *notifications.Hub, auditSvc *audit.Service, authn middleware.Authenticator, principals middleware.PrincipalSource, origins []string) *Handler {
	return &Handler{
		Service:        service,
		Hub:            hub,
		Audit:          auditSvc,
		Authn:          authn,
		Principals:     principals,
		AllowedOrigins: origins,
	}
}

// RegisterRoutes mounts the REST endpoints. The WebSocket route is mounted
// separately through RegisterSocket because it authenticates from the query
// string.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/stats", h.handleStats)
		r.Put("/mark-all-read", h.handleMarkAllRead)
		r.Put("/{notificationID}/read", h.handleMarkRead)
		r.Delete("/{notificationID}", h.handleDelete)
		r.With(middleware.RequirePermission(auth.PermNotificationManage)).Get("/connection-stats", h.handleConnectionStats)
		r.With(middleware.RequirePermission(auth.PermNotificationManage)).Post("/announce", h.handleAnnounce)
	})
}

func (h *Handler) RegisterSocket(r chi.Router) {
	r.Get("/notifications/ws", h.handleSocket)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	page := shared.ParsePagination(r, shared.DefaultLimit, shared.MaxLimit)
	items, total, err := h.Service.List(r.Context(), p.UserID, notifications.Filter{
		UnreadOnly: shared.QueryBool(r, "unread_only"),
		Type:       r.URL.Query().Get("type"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		shared.FailError(w, r, err, "notification_list_failed", "failed to list notifications")
		return
	}
	api.List(w, items, total)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	stats, err := h.Service.Stats(r.Context(), p.UserID)
	if err != nil {
		shared.FailError(w, r, err, "notification_stats_failed", "failed to load notification stats")
		return
	}
	api.Success(w, stats)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "notificationID")
	if !ok {
		return
	}
	if err := h.Service.MarkRead(r.Context(), p.UserID, id); err != nil {
		shared.FailError(w, r, err, "notification_read_failed", "failed to mark notification read")
		return
	}
	api.Success(w, map[string]any{"id": id, "is_read": true})
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	count, err := h.Service.MarkAllRead(r.Context(), p.UserID)
	if err != nil {
		shared.FailError(w, r, err, "notification_read_failed", "failed to mark notifications read")
		return
	}
	api.Success(w, map[string]int64{"marked_count": count})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "notificationID")
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), p.UserID, id); err != nil {
		shared.FailError(w, r, err, "notification_delete_failed", "failed to delete notification")
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleConnectionStats(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Hub.Stats(r.Context()))
}

func (h *Handler) handleAnnounce(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	var payload struct {
		Title    string `json:"title"`
		Message  string `json:"message"`
		Priority string `json:"priority"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("title", payload.Title, "title is required")
	v.Required("message", payload.Message, "message is required")
	if payload.Priority != "" && !notifications.ValidPriority(payload.Priority) {
		v.Add("priority", "unknown priority")
	}
	if v.Reject(w, r) {
		return
	}
	recipients, err := h.Service.Announce(r.Context(), p.UserID, payload.Title, payload.Message, payload.Priority)
	if err != nil {
		shared.FailError(w, r, err, "announce_failed", "failed to send announcement")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "notification.announce", "notification", "", nil, payload))
	api.Success(w, map[string]int{"recipients": recipients})
}

