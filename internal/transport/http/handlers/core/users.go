package corehandler

import (
	"net/http"

	"pms/internal/domain/core"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/shared"
)

var userStatuses = []string{
	core.UserStatusActive, core.UserStatusSuspended, core.UserStatusOnLeave,
	core.UserStatusArchived, core.UserStatusPendingActivation,
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	v := shared.NewValidator()
	v.Enum("status", q.Get("status"), userStatuses, "unknown status")
	v.UUID("organization_id", q.Get("organization_id"))
	if v.Reject(w, r) {
		return
	}
	page := shared.ParsePagination(r, shared.DefaultLimit, shared.MaxLimit)
	users, total, err := h.Service.ListUsers(r.Context(), p, core.UserFilter{
		Status: q.Get("status"),
		OrgID:  q.Get("organization_id"),
		Search: q.Get("search"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		shared.FailError(w, r, err, "user_list_failed", "failed to list users")
		return
	}
	api.List(w, users, total)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	var payload core.CreateUserInput
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("first_name", payload.FirstName, "first name is required")
	v.Required("last_name", payload.LastName, "last name is required")
	v.UUID("organization_id", payload.OrganizationID)
	v.UUID("role_id", payload.RoleID)
	v.UUID("supervisor_id", payload.SupervisorID)
	if v.Reject(w, r) {
		return
	}

	user, err := h.Service.CreateUser(r.Context(), p, payload)
	if err != nil {
		shared.FailError(w, r, err, "user_create_failed", "failed to create user")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "user.create", "user", user.ID, nil, user))
	api.Created(w, user)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	user, err := h.Service.GetUser(r.Context(), p, p.UserID)
	if err != nil {
		shared.FailError(w, r, err, "user_get_failed", "failed to load user")
		return
	}
	api.Success(w, user)
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	var payload core.UserUpdate
	if !shared.Decode(w, r, &payload) {
		return
	}
	user, err := h.Service.UpdateMe(r.Context(), p, payload)
	if err != nil {
		shared.FailError(w, r, err, "user_update_failed", "failed to update profile")
		return
	}
	api.Success(w, user)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	userID, ok := shared.IDParam(w, r, "userID")
	if !ok {
		return
	}
	user, err := h.Service.GetUser(r.Context(), p, userID)
	if err != nil {
		shared.FailError(w, r, err, "user_get_failed", "failed to load user")
		return
	}
	api.Success(w, user)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	userID, ok := shared.IDParam(w, r, "userID")
	if !ok {
		return
	}
	var payload core.UserUpdate
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	if payload.OrganizationID != nil {
		v.UUID("organization_id", *payload.OrganizationID)
	}
	if payload.RoleID != nil {
		v.UUID("role_id", *payload.RoleID)
	}
	if v.Reject(w, r) {
		return
	}
	user, err := h.Service.UpdateUser(r.Context(), p, userID, payload)
	if err != nil {
		shared.FailError(w, r, err, "user_update_failed", "failed to update user")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "user.update", "user", userID, nil, payload))
	api.Success(w, user)
}

func (h *Handler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	userID, ok := shared.IDParam(w, r, "userID")
	if !ok {
		return
	}
	var payload struct {
		Status string `json:"status"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("status", payload.Status, "status is required")
	v.Enum("status", payload.Status, userStatuses, "unknown status")
	if v.Reject(w, r) {
		return
	}
	user, err := h.Service.ChangeStatus(r.Context(), p, userID, payload.Status)
	if err != nil {
		shared.FailError(w, r, err, "user_status_failed", "failed to change user status")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "user.status", "user", userID, nil, map[string]string{"status": payload.Status}))
	api.Success(w, user)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.IDParam(w, r, "userID")
	if !ok {
		return
	}
	page := shared.ParsePagination(r, shared.DefaultLimit, shared.MaxLimit)
	entries, err := h.Service.History(r.Context(), userID, page.Limit, page.Offset)
	if err != nil {
		shared.FailError(w, r, err, "user_history_failed", "failed to load user history")
		return
	}
	api.Success(w, entries)
}

func (h *Handler) handleMySupervisees(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	users, err := h.Service.Supervisees(r.Context(), p.UserID)
	if err != nil {
		shared.FailError(w, r, err, "supervisees_failed", "failed to list supervisees")
		return
	}
	api.Success(w, users)
}

func (h *Handler) handleSupervisees(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	userID, ok := shared.IDParam(w, r, "userID")
	if !ok {
		return
	}
	if _, err := h.Service.GetUser(r.Context(), p, userID); err != nil {
		shared.FailError(w, r, err, "supervisees_failed", "failed to list supervisees")
		return
	}
	users, err := h.Service.Supervisees(r.Context(), userID)
	if err != nil {
		shared.FailError(w, r, err, "supervisees_failed", "failed to list supervisees")
		return
	}
	api.Success(w, users)
}

func (h *Handler) handlePotentialSupervisors(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	userID, ok := shared.IDParam(w, r, "userID")
	if !ok {
		return
	}
	users, err := h.Service.PotentialSupervisors(r.Context(), p, userID)
	if err != nil {
		shared.FailError(w, r, err, "potential_supervisors_failed", "failed to list potential supervisors")
		return
	}
	api.Success(w, users)
}

func (h *Handler) handleSetSupervisor(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	userID, ok := shared.IDParam(w, r, "userID")
	if !ok {
		return
	}
	var payload struct {
		SupervisorID string `json:"supervisor_id"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.UUID("supervisor_id", payload.SupervisorID)
	if v.Reject(w, r) {
		return
	}
	user, err := h.Service.SetSupervisor(r.Context(), p, userID, payload.SupervisorID)
	if err != nil {
		shared.FailError(w, r, err, "set_supervisor_failed", "failed to set supervisor")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "user.supervisor", "user", userID, nil, payload))
	api.Success(w, user)
}

func (h *Handler) handleUploadProfileImage(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	upload, ok := shared.FormFile(w, r, "file")
	if !ok {
		return
	}
	defer upload.File.Close()
	user, err := h.Service.UploadProfileImage(r.Context(), p.UserID, upload.FileName, upload.ContentType, upload.Size, upload.File)
	if err != nil {
		shared.FailError(w, r, err, "profile_image_failed", "failed to store profile image")
		return
	}
	api.Success(w, user)
}

func (h *Handler) handleDeleteProfileImage(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteProfileImage(r.Context(), p.UserID); err != nil {
		shared.FailError(w, r, err, "profile_image_failed", "failed to delete profile image")
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleProfileImage(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	userID, ok := shared.IDParam(w, r, "userID")
	if !ok {
		return
	}
	if _, err := h.Service.GetUser(r.Context(), p, userID); err != nil {
		shared.FailError(w, r, err, "profile_image_failed", "failed to load profile image")
		return
	}
	obj, err := h.Service.ProfileImage(r.Context(), userID)
	if err != nil {
		shared.FailError(w, r, err, "profile_image_failed", "failed to load profile image")
		return
	}
	writeObject(w, obj)
}
