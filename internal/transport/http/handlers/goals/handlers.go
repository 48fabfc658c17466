package goalshandler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/audit"
	"pms/internal/domain/auth"
	"pms/internal/domain/goals"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
	"pms/internal/transport/http/shared"
)

type Handler struct {
	Service *goals.Service
	Audit   *audit.Service
}

func NewHandler(service *goals.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/goals", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/stats", h.handleStats)
		r.Get("/supervisees", h.handleSuperviseeGoals)
		r.Post("/supervisees/{userID}", h.handleCreateForSupervisee)
		r.With(middleware.RequirePermission(auth.PermGoalFreeze)).Post("/freeze", h.handleFreeze)
		r.With(middleware.RequirePermission(auth.PermGoalFreeze)).Post("/unfreeze", h.handleUnfreeze)
		r.Get("/freeze-logs", h.handleFreezeLogs)
		r.Route("/{goalID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Put("/progress", h.handleUpdateProgress)
			r.Get("/progress", h.handleProgressReports)
			r.Put("/status", h.handleChangeStatus)
			r.Post("/discard", h.handleDiscard)
			r.Get("/children", h.handleChildren)
			r.Get("/hierarchy", h.handleHierarchy)
			r.Post("/approve", h.handleApprove)
			r.Post("/respond", h.handleRespond)
			r.Post("/request-change", h.handleRequestChange)
		})
	})
}

type goalPayload struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Scope          string `json:"scope"`
	Type           string `json:"type"`
	Quarter        string `json:"quarter"`
	Year           *int   `json:"year"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	OrganizationID string `json:"organization_id"`
	ParentGoalID   string `json:"parent_goal_id"`
	OwnerID        string `json:"owner_id"`
}

func (p goalPayload) input(v *shared.Validator) goals.CreateInput {
	v.Required("title", p.Title, "title is required")
	v.Enum("scope", p.Scope, goals.Scopes, "unknown goal scope")
	v.Enum("type", p.Type, goals.Types, "unknown goal type")
	v.Enum("quarter", p.Quarter, goals.Quarters, "quarter must be Q1 to Q4")
	v.UUID("organization_id", p.OrganizationID)
	v.UUID("parent_goal_id", p.ParentGoalID)
	v.UUID("owner_id", p.OwnerID)
	start := v.OptionalDate("start_date", p.StartDate)
	end := v.OptionalDate("end_date", p.EndDate)
	if start != nil && end != nil {
		v.DateOrder("start_date", *start, "end_date", *end)
	}
	return goals.CreateInput{
		Title:          p.Title,
		Description:    p.Description,
		Scope:          p.Scope,
		Type:           p.Type,
		Quarter:        p.Quarter,
		Year:           p.Year,
		StartDate:      start,
		EndDate:        end,
		OrganizationID: p.OrganizationID,
		ParentGoalID:   p.ParentGoalID,
		OwnerID:        p.OwnerID,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	v := shared.NewValidator()
	v.Enum("scope", q.Get("scope"), goals.Scopes, "unknown goal scope")
	v.Enum("type", q.Get("type"), goals.Types, "unknown goal type")
	v.Enum("status", q.Get("status"), goals.Statuses, "unknown goal status")
	if v.Reject(w, r) {
		return
	}
	page := shared.ParsePagination(r, shared.DefaultLimit, shared.MaxLimit)
	items, total, err := h.Service.List(r.Context(), p, goals.ListFilter{
		Scope:  q.Get("scope"),
		Type:   q.Get("type"),
		Status: q.Get("status"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		shared.FailError(w, r, err, "goal_list_failed", "failed to list goals")
		return
	}
	api.List(w, items, total)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	stats, err := h.Service.Stats(r.Context(), p)
	if err != nil {
		shared.FailError(w, r, err, "goal_stats_failed", "failed to load goal stats")
		return
	}
	api.Success(w, stats)
}

func (h *Handler) handleSuperviseeGoals(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	items, err := h.Service.SuperviseeGoals(r.Context(), p)
	if err != nil {
		shared.FailError(w, r, err, "goal_list_failed", "failed to list supervisee goals")
		return
	}
	api.Success(w, items)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	var payload goalPayload
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("scope", payload.Scope, "scope is required")
	in := payload.input(v)
	if v.Reject(w, r) {
		return
	}
	goal, err := h.Service.Create(r.Context(), p, in)
	if err != nil {
		shared.FailError(w, r, err, "goal_create_failed", "failed to create goal")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "goal.create", "goal", goal.ID, nil, goal))
	api.Created(w, goal)
}

func (h *Handler) handleCreateForSupervisee(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	userID, ok := shared.IDParam(w, r, "userID")
	if !ok {
		return
	}
	var payload goalPayload
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	in := payload.input(v)
	if v.Reject(w, r) {
		return
	}
	goal, err := h.Service.CreateForSupervisee(r.Context(), p, userID, in)
	if err != nil {
		shared.FailError(w, r, err, "goal_create_failed", "failed to create goal")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "goal.assign", "goal", goal.ID, nil, goal))
	api.Created(w, goal)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	goalID, ok := shared.IDParam(w, r, "goalID")
	if !ok {
		return
	}
	goal, err := h.Service.Get(r.Context(), p, goalID)
	if err != nil {
		shared.FailError(w, r, err, "goal_get_failed", "failed to load goal")
		return
	}
	api.Success(w, goal)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	goalID, ok := shared.IDParam(w, r, "goalID")
	if !ok {
		return
	}
	var payload struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		StartDate   *string `json:"start_date"`
		EndDate     *string `json:"end_date"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	in := goals.UpdateInput{Title: payload.Title, Description: payload.Description}
	if payload.Title != nil {
		v.Required("title", *payload.Title, "title cannot be empty")
	}
	if payload.StartDate != nil {
		in.StartDate = v.OptionalDate("start_date", *payload.StartDate)
	}
	if payload.EndDate != nil {
		in.EndDate = v.OptionalDate("end_date", *payload.EndDate)
	}
	if in.StartDate != nil && in.EndDate != nil {
		v.DateOrder("start_date", *in.StartDate, "end_date", *in.EndDate)
	}
	if v.Reject(w, r) {
		return
	}
	goal, err := h.Service.Update(r.Context(), p, goalID, in)
	if err != nil {
		shared.FailError(w, r, err, "goal_update_failed", "failed to update goal")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "goal.update", "goal", goalID, nil, goal))
	api.Success(w, goal)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	goalID, ok := shared.IDParam(w, r, "goalID")
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), p, goalID); err != nil {
		shared.FailError(w, r, err, "goal_delete_failed", "failed to delete goal")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "goal.delete", "goal", goalID, nil, nil))
	api.NoContent(w)
}

func (h *Handler) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	goalID, ok := shared.IDParam(w, r, "goalID")
	if !ok {
		return
	}
	var payload struct {
		ProgressPercentage *int   `json:"progress_percentage"`
		Report             string `json:"report"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	if payload.ProgressPercentage == nil {
		v.Add("progress_percentage", "progress percentage is required")
	} else if *payload.ProgressPercentage < 0 || *payload.ProgressPercentage > 100 {
		v.Add("progress_percentage", "must be between 0 and 100")
	}
	v.Required("report", payload.Report, "a progress report is required")
	if v.Reject(w, r) {
		return
	}
	goal, err := h.Service.UpdateProgress(r.Context(), p, goalID, *payload.ProgressPercentage, payload.Report)
	if err != nil {
		shared.FailError(w, r, err, "goal_progress_failed", "failed to update goal progress")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "goal.progress", "goal", goalID, nil, payload))
	api.Success(w, goal)
}

func (h *Handler) handleProgressReports(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	goalID, ok := shared.IDParam(w, r, "goalID")
	if !ok {
		return
	}
	reports, err := h.Service.ProgressReports(r.Context(), p, goalID)
	if err != nil {
		shared.FailError(w, r, err, "goal_progress_failed", "failed to load progress reports")
		return
	}
	api.Success(w, reports)
}

type reasonPayload struct {
	Status   string `json:"status"`
	Reason   string `json:"reason"`
	Approved *bool  `json:"approved"`
	Accepted *bool  `json:"accepted"`
	Message  string `json:"message"`
}

func (h *Handler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	goalID, ok := shared.IDParam(w, r, "goalID")
	if !ok {
		return
	}
	var payload reasonPayload
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("status", payload.Status, "status is required")
	v.Enum("status", payload.Status, goals.Statuses, "unknown goal status")
	if v.Reject(w, r) {
		return
	}
	goal, err := h.Service.ChangeStatus(r.Context(), p, goalID, payload.Status, payload.Reason)
	if err != nil {
		shared.FailError(w, r, err, "goal_status_failed", "failed to change goal status")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "goal.status", "goal", goalID, nil, payload))
	api.Success(w, goal)
}

func (h *Handler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	goalID, ok := shared.IDParam(w, r, "goalID")
	if !ok {
		return
	}
	var payload reasonPayload
	if !shared.DecodeOptional(w, r, &payload) {
		return
	}
	goal, err := h.Service.Discard(r.Context(), p, goalID, payload.Reason)
	if err != nil {
		shared.FailError(w, r, err, "goal_discard_failed", "failed to discard goal")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "goal.discard", "goal", goalID, nil, payload))
	api.Success(w, goal)
}

func (h *Handler) handleChildren(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	goalID, ok := shared.IDParam(w, r, "goalID")
	if !ok {
		return
	}
	children, err := h.Service.Children(r.Context(), p, goalID)
	if err != nil {
		shared.FailError(w, r, err, "goal_children_failed", "failed to list child goals")
		return
	}
	api.Success(w, children)
}

func (h *Handler) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	goalID, ok := shared.IDParam(w, r, "goalID")
	if !ok {
		return
	}
	node, err := h.Service.Hierarchy(r.Context(), p, goalID)
	if err != nil {
		shared.FailError(w, r, err, "goal_hierarchy_failed", "failed to build goal hierarchy")
		return
	}
	api.Success(w, node)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	goalID, ok := shared.IDParam(w, r, "goalID")
	if !ok {
		return
	}
	var payload reasonPayload
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	if payload.Approved == nil {
		v.Add("approved", "approved is required")
	} else if !*payload.Approved {
		v.Required("reason", payload.Reason, "a reason is required when rejecting")
	}
	if v.Reject(w, r) {
		return
	}
	goal, err := h.Service.Approve(r.Context(), p, goalID, *payload.Approved, payload.Reason)
	if err != nil {
		shared.FailError(w, r, err, "goal_approve_failed", "failed to review goal")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "goal.approve", "goal", goalID, nil, payload))
	api.Success(w, goal)
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	goalID, ok := shared.IDParam(w, r, "goalID")
	if !ok {
		return
	}
	var payload reasonPayload
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	if payload.Accepted == nil {
		v.Add("accepted", "accepted is required")
	}
	if v.Reject(w, r) {
		return
	}
	goal, err := h.Service.Respond(r.Context(), p, goalID, *payload.Accepted, payload.Message)
	if err != nil {
		shared.FailError(w, r, err, "goal_respond_failed", "failed to respond to goal")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "goal.respond", "goal", goalID, nil, payload))
	api.Success(w, goal)
}

func (h *Handler) handleRequestChange(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	goalID, ok := shared.IDParam(w, r, "goalID")
	if !ok {
		return
	}
	var payload reasonPayload
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("reason", payload.Reason, "a reason is required")
	if v.Reject(w, r) {
		return
	}
	goal, err := h.Service.RequestChange(r.Context(), p, goalID, payload.Reason)
	if err != nil {
		shared.FailError(w, r, err, "goal_change_request_failed", "failed to request goal change")
		return
	}
	api.Success(w, goal)
}

func (h *Handler) handleFreeze(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	var payload struct {
		Quarter               string `json:"quarter"`
		Year                  int    `json:"year"`
		ScheduledUnfreezeDate string `json:"scheduled_unfreeze_date"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("quarter", payload.Quarter, "quarter is required")
	if payload.Year == 0 {
		v.Add("year", "year is required")
	}
	unfreeze := v.OptionalDate("scheduled_unfreeze_date", payload.ScheduledUnfreezeDate)
	if v.Reject(w, r) {
		return
	}
	result, err := h.Service.Freeze(r.Context(), p, goals.FreezeInput{
		Quarter:               payload.Quarter,
		Year:                  payload.Year,
		ScheduledUnfreezeDate: unfreeze,
	})
	if err != nil {
		shared.FailError(w, r, err, "goal_freeze_failed", "failed to freeze goals")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "goal.freeze", "goal_quarter", payload.Quarter+"-"+strconv.Itoa(payload.Year), nil, result))
	api.Success(w, result)
}

func (h *Handler) handleUnfreeze(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	var payload struct {
		Quarter             string `json:"quarter"`
		Year                int    `json:"year"`
		IsEmergencyOverride bool   `json:"is_emergency_override"`
		EmergencyReason     string `json:"emergency_reason"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("quarter", payload.Quarter, "quarter is required")
	if payload.Year == 0 {
		v.Add("year", "year is required")
	}
	if payload.IsEmergencyOverride {
		v.Required("emergency_reason", payload.EmergencyReason, "an emergency override needs a reason")
	}
	if v.Reject(w, r) {
		return
	}
	result, err := h.Service.Unfreeze(r.Context(), p, goals.UnfreezeInput{
		Quarter:             payload.Quarter,
		Year:                payload.Year,
		IsEmergencyOverride: payload.IsEmergencyOverride,
		EmergencyReason:     payload.EmergencyReason,
	})
	if err != nil {
		shared.FailError(w, r, err, "goal_unfreeze_failed", "failed to unfreeze goals")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "goal.unfreeze", "goal_quarter", payload.Quarter+"-"+strconv.Itoa(payload.Year), nil, result))
	api.Success(w, result)
}

func (h *Handler) handleFreezeLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year := 0
	if raw := q.Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2000 || parsed > time.Now().Year()+10 {
			v := shared.NewValidator()
			v.Add("year", "must be a valid year")
			v.Reject(w, r)
			return
		}
		year = parsed
	}
	logs, err := h.Service.FreezeLogs(r.Context(), q.Get("quarter"), year)
	if err != nil {
		shared.FailError(w, r, err, "goal_freeze_logs_failed", "failed to load freeze logs")
		return
	}
	api.Success(w, logs)
}
