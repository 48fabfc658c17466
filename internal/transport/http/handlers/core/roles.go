package corehandler

import (
	"net/http"

	"pms/internal/domain/access"
	"pms/internal/domain/core"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/shared"
)

var scopeOverrides = []string{access.OverrideNone, access.ScopeGlobal, access.ScopeCrossDirectorate, access.ScopeOwnSubtree}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.ListRoles(r.Context())
	if err != nil {
		shared.FailError(w, r, err, "role_list_failed", "failed to list roles")
		return
	}
	api.List(w, roles, len(roles))
}

func (h *Handler) handlePermissions(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Service.PermissionCatalogue())
}

func (h *Handler) handleGetRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := shared.IDParam(w, r, "roleID")
	if !ok {
		return
	}
	role, err := h.Service.GetRole(r.Context(), roleID)
	if err != nil {
		shared.FailError(w, r, err, "role_get_failed", "failed to load role")
		return
	}
	api.Success(w, role)
}

func validateRole(w http.ResponseWriter, r *http.Request, in core.RoleInput) bool {
	v := shared.NewValidator()
	v.Required("name", in.Name, "name is required")
	v.Enum("scope_override", in.ScopeOverride, scopeOverrides, "unknown scope override")
	return !v.Reject(w, r)
}

func (h *Handler) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var payload core.RoleInput
	if !shared.Decode(w, r, &payload) || !validateRole(w, r, payload) {
		return
	}
	role, err := h.Service.CreateRole(r.Context(), payload)
	if err != nil {
		shared.FailError(w, r, err, "role_create_failed", "failed to create role")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "role.create", "role", role.ID, nil, role))
	api.Created(w, role)
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := shared.IDParam(w, r, "roleID")
	if !ok {
		return
	}
	var payload core.RoleInput
	if !shared.Decode(w, r, &payload) || !validateRole(w, r, payload) {
		return
	}
	before, err := h.Service.GetRole(r.Context(), roleID)
	if err != nil {
		shared.FailError(w, r, err, "role_update_failed", "failed to update role")
		return
	}
	role, err := h.Service.UpdateRole(r.Context(), roleID, payload)
	if err != nil {
		shared.FailError(w, r, err, "role_update_failed", "failed to update role")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "role.update", "role", roleID, before, role))
	api.Success(w, role)
}

func (h *Handler) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := shared.IDParam(w, r, "roleID")
	if !ok {
		return
	}
	if err := h.Service.DeleteRole(r.Context(), roleID); err != nil {
		shared.FailError(w, r, err, "role_delete_failed", "failed to delete role")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "role.delete", "role", roleID, nil, nil))
	api.NoContent(w)
}

func (h *Handler) handleRoleUsers(w http.ResponseWriter, r *http.Request) {
	roleID, ok := shared.IDParam(w, r, "roleID")
	if !ok {
		return
	}
	users, err := h.Service.RoleUsers(r.Context(), roleID)
	if err != nil {
		shared.FailError(w, r, err, "role_users_failed", "failed to list role users")
		return
	}
	api.Success(w, users)
}

func (h *Handler) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	roleID, ok := shared.IDParam(w, r, "roleID")
	if !ok {
		return
	}
	userID, ok := shared.IDParam(w, r, "userID")
	if !ok {
		return
	}
	user, err := h.Service.AssignRole(r.Context(), p, userID, roleID)
	if err != nil {
		shared.FailError(w, r, err, "role_assign_failed", "failed to assign role")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "role.assign", "user", userID, nil, map[string]string{"role_id": roleID}))
	api.Success(w, user)
}
