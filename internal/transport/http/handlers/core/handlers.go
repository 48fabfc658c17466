package corehandler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/audit"
	"pms/internal/domain/auth"
	"pms/internal/domain/core"
	"pms/internal/platform/storage"
	"pms/internal/transport/http/middleware"
)

type Handler struct {
	Service *core.Service
	Audit   *audit.Service
}

func NewHandler(service *core.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.handleListUsers)
		r.With(middleware.RequirePermission(auth.PermUserCreate)).Post("/", h.handleCreateUser)
		r.Route("/me", func(r chi.Router) {
			r.Get("/", h.handleMe)
			r.Put("/", h.handleUpdateMe)
			r.Get("/supervisees", h.handleMySupervisees)
			r.Post("/profile-image", h.handleUploadProfileImage)
			r.Delete("/profile-image", h.handleDeleteProfileImage)
		})
		r.Route("/{userID}", func(r chi.Router) {
			r.Get("/", h.handleGetUser)
			r.Get("/supervisees", h.handleSupervisees)
			r.Get("/profile-image", h.handleProfileImage)
			r.With(middleware.RequirePermission(auth.PermUserEdit)).Put("/", h.handleUpdateUser)
			r.Put("/status", h.handleChangeStatus)
			r.With(middleware.RequirePermission(auth.PermUserHistoryView)).Get("/history", h.handleHistory)
			r.With(middleware.RequirePermission(auth.PermUserEdit)).Get("/potential-supervisors", h.handlePotentialSupervisors)
			r.With(middleware.RequirePermission(auth.PermUserEdit)).Put("/supervisor", h.handleSetSupervisor)
		})
	})

	r.Route("/organization", func(r chi.Router) {
		r.Get("/", h.handleListOrganizations)
		r.Get("/tree", h.handleOrganizationTree)
		r.With(middleware.RequirePermission(auth.PermOrganizationViewAll)).Get("/stats", h.handleOrganizationStats)
		r.With(middleware.RequirePermission(auth.PermOrganizationCreate)).Post("/", h.handleCreateOrganization)
		r.Route("/{orgID}", func(r chi.Router) {
			r.Get("/", h.handleGetOrganization)
			r.Get("/children", h.handleChildren)
			r.With(middleware.RequirePermission(auth.PermOrganizationEdit)).Put("/", h.handleUpdateOrganization)
			r.With(middleware.RequirePermission(auth.PermOrganizationDelete)).Delete("/", h.handleDeleteOrganization)
		})
	})

	r.Route("/roles", func(r chi.Router) {
		r.Use(middleware.RequireAnyPermission(auth.PermRoleViewAll, auth.PermRoleAssign))
		r.Get("/", h.handleListRoles)
		r.Get("/permissions", h.handlePermissions)
		r.With(middleware.RequirePermission(auth.PermRoleCreate)).Post("/", h.handleCreateRole)
		r.Route("/{roleID}", func(r chi.Router) {
			r.Get("/", h.handleGetRole)
			r.Get("/users", h.handleRoleUsers)
			r.With(middleware.RequirePermission(auth.PermRoleEdit)).Put("/", h.handleUpdateRole)
			r.With(middleware.RequirePermission(auth.PermRoleDelete)).Delete("/", h.handleDeleteRole)
			r.With(middleware.RequirePermission(auth.PermRoleAssign)).Post("/assign/{userID}", h.handleAssignRole)
		})
	})
}

// writeObject streams a stored blob back to the client.
func writeObject(w http.ResponseWriter, obj storage.Object) {
	defer obj.Body.Close()
	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := io.Copy(w, obj.Body); err != nil {
		slog.Warn("object stream failed", "err", err)
	}
}
