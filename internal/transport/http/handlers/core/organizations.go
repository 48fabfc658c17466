package corehandler

import (
	"net/http"

	"pms/internal/domain/access"
	"pms/internal/domain/core"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/shared"
)

var orgLevels = []string{access.LevelGlobal, access.LevelDirectorate, access.LevelDepartment, access.LevelDivision, access.LevelUnit}

func (h *Handler) handleListOrganizations(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	orgs, err := h.Service.ListOrganizations(r.Context(), p)
	if err != nil {
		shared.FailError(w, r, err, "organization_list_failed", "failed to list organizations")
		return
	}
	api.List(w, orgs, len(orgs))
}

func (h *Handler) handleOrganizationTree(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	forest, err := h.Service.OrganizationTree(r.Context(), p)
	if err != nil {
		shared.FailError(w, r, err, "organization_tree_failed", "failed to build organization tree")
		return
	}
	api.Success(w, forest)
}

func (h *Handler) handleOrganizationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.OrganizationStats(r.Context())
	if err != nil {
		shared.FailError(w, r, err, "organization_stats_failed", "failed to load organization stats")
		return
	}
	api.Success(w, stats)
}

func (h *Handler) handleGetOrganization(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	orgID, ok := shared.IDParam(w, r, "orgID")
	if !ok {
		return
	}
	org, err := h.Service.GetOrganization(r.Context(), p, orgID)
	if err != nil {
		shared.FailError(w, r, err, "organization_get_failed", "failed to load organization")
		return
	}
	api.Success(w, org)
}

func (h *Handler) handleChildren(w http.ResponseWriter, r *http.Request) {
	orgID, ok := shared.IDParam(w, r, "orgID")
	if !ok {
		return
	}
	children, err := h.Service.Children(r.Context(), orgID)
	if err != nil {
		shared.FailError(w, r, err, "organization_children_failed", "failed to list child organizations")
		return
	}
	api.Success(w, children)
}

func validateOrganization(w http.ResponseWriter, r *http.Request, in core.OrganizationInput) bool {
	v := shared.NewValidator()
	v.Required("name", in.Name, "name is required")
	v.Required("level", in.Level, "level is required")
	v.Enum("level", in.Level, orgLevels, "unknown organization level")
	v.UUID("parent_id", in.ParentID)
	return !v.Reject(w, r)
}

func (h *Handler) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	var payload core.OrganizationInput
	if !shared.Decode(w, r, &payload) || !validateOrganization(w, r, payload) {
		return
	}
	org, err := h.Service.CreateOrganization(r.Context(), payload)
	if err != nil {
		shared.FailError(w, r, err, "organization_create_failed", "failed to create organization")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "organization.create", "organization", org.ID, nil, org))
	api.Created(w, org)
}

func (h *Handler) handleUpdateOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, ok := shared.IDParam(w, r, "orgID")
	if !ok {
		return
	}
	var payload core.OrganizationInput
	if !shared.Decode(w, r, &payload) || !validateOrganization(w, r, payload) {
		return
	}
	org, err := h.Service.UpdateOrganization(r.Context(), orgID, payload)
	if err != nil {
		shared.FailError(w, r, err, "organization_update_failed", "failed to update organization")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "organization.update", "organization", org.ID, nil, org))
	api.Success(w, org)
}

func (h *Handler) handleDeleteOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, ok := shared.IDParam(w, r, "orgID")
	if !ok {
		return
	}
	if err := h.Service.DeleteOrganization(r.Context(), orgID); err != nil {
		shared.FailError(w, r, err, "organization_delete_failed", "failed to delete organization")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "organization.delete", "organization", orgID, nil, nil))
	api.NoContent(w)
}
