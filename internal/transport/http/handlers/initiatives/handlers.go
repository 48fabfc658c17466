package initiativeshandler

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/access"
	"pms/internal/domain/audit"
	"pms/internal/domain/initiatives"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/shared"
)

type Handler struct {
	Service *initiatives.Service
	Audit   *audit.Service
}

func NewHandler(service *initiatives.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/initiatives", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/stats", h.handleStats)
		r.Get("/assigned", h.handleAssigned)
		r.Get("/created", h.handleCreated)
		r.Get("/review-queue", h.handleReviewQueue)
		r.Get("/supervisees", h.handleSupervisees)
		r.Get("/supervisees/summary", h.handleHasSupervisees)
		r.Get("/assignable-users", h.handleAssignableUsers)
		r.Get("/user/{userID}", h.handleForUser)
		r.Post("/documents", h.handleUploadDocument)
		r.Get("/documents/{documentID}", h.handleDownloadDocument)
		r.Route("/{initiativeID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Post("/approve", h.handleApprove)
			r.Post("/accept", h.transition("accept", h.Service.Accept))
			r.Post("/start", h.transition("start", h.Service.Start))
			r.Post("/complete", h.transition("complete", h.Service.Complete))
			r.Put("/status", h.handleStatus)
			r.Post("/submit", h.handleSubmit)
			r.Get("/submissions", h.handleSubmissions)
			r.Get("/submissions/latest", h.handleLatestSubmission)
			r.Post("/review", h.handleReview)
			r.Post("/extensions", h.handleRequestExtension)
			r.Post("/extensions/{extensionID}/review", h.handleReviewExtension)
			r.Get("/documents", h.handleDocuments)
			r.Post("/documents", h.handleUploadDocument)
		})
	})
}

// statusesParam accepts repeated ?status= values as well as a comma list.
func statusesParam(r *http.Request) []string {
	var out []string
	for _, raw := range r.URL.Query()["status"] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, strings.ToUpper(part))
			}
		}
	}
	return out
}

func validStatuses(v *shared.Validator, statuses []string) {
	for _, status := range statuses {
		v.Enum("status", status, initiatives.Statuses, "unknown initiative status")
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	statuses := statusesParam(r)
	v := shared.NewValidator()
	validStatuses(v, statuses)
	v.Enum("type", q.Get("type"), initiatives.Types, "unknown initiative type")
	v.Enum("urgency", q.Get("urgency"), initiatives.Urgencies, "unknown urgency")
	v.UUID("assignee_id", q.Get("assignee_id"))
	v.UUID("creator_id", q.Get("creator_id"))
	if v.Reject(w, r) {
		return
	}
	page := shared.ParsePagination(r, shared.DefaultLimit, shared.MaxLimit)
	items, total, err := h.Service.List(r.Context(), p, initiatives.ListFilter{
		Statuses:   statuses,
		Type:       q.Get("type"),
		Urgency:    q.Get("urgency"),
		AssigneeID: q.Get("assignee_id"),
		CreatorID:  q.Get("creator_id"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		shared.FailError(w, r, err, "initiative_list_failed", "failed to list initiatives")
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
		shared.FailError(w, r, err, "initiative_stats_failed", "failed to load initiative stats")
		return
	}
	api.Success(w, stats)
}

func (h *Handler) handleAssigned(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	statuses := statusesParam(r)
	v := shared.NewValidator()
	validStatuses(v, statuses)
	if v.Reject(w, r) {
		return
	}
	items, err := h.Service.Assigned(r.Context(), p, statuses)
	if err != nil {
		shared.FailError(w, r, err, "initiative_list_failed", "failed to list assigned initiatives")
		return
	}
	api.Success(w, items)
}

func (h *Handler) handleForUser(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	userID, ok := shared.IDParam(w, r, "userID")
	if !ok {
		return
	}
	statuses := statusesParam(r)
	v := shared.NewValidator()
	validStatuses(v, statuses)
	if v.Reject(w, r) {
		return
	}
	items, err := h.Service.ForUser(r.Context(), p, userID, statuses)
	if err != nil {
		shared.FailError(w, r, err, "initiative_list_failed", "failed to list user initiatives")
		return
	}
	api.Success(w, items)
}

func (h *Handler) handleCreated(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	statuses := statusesParam(r)
	v := shared.NewValidator()
	validStatuses(v, statuses)
	if v.Reject(w, r) {
		return
	}
	items, err := h.Service.Created(r.Context(), p, statuses)
	if err != nil {
		shared.FailError(w, r, err, "initiative_list_failed", "failed to list created initiatives")
		return
	}
	api.Success(w, items)
}

func (h *Handler) handleReviewQueue(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	items, err := h.Service.ReviewQueue(r.Context(), p)
	if err != nil {
		shared.FailError(w, r, err, "initiative_list_failed", "failed to load review queue")
		return
	}
	api.Success(w, items)
}

func (h *Handler) handleSupervisees(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	items, err := h.Service.Supervisees(r.Context(), p)
	if err != nil {
		shared.FailError(w, r, err, "initiative_list_failed", "failed to list supervisee initiatives")
		return
	}
	api.Success(w, items)
}

func (h *Handler) handleHasSupervisees(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	summary, err := h.Service.HasSupervisees(r.Context(), p)
	if err != nil {
		shared.FailError(w, r, err, "supervisee_summary_failed", "failed to check supervisees")
		return
	}
	api.Success(w, summary)
}

func (h *Handler) handleAssignableUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	users, err := h.Service.AssignableUsers(r.Context(), p)
	if err != nil {
		shared.FailError(w, r, err, "assignable_users_failed", "failed to list assignable users")
		return
	}
	api.Success(w, users)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	var payload struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Type        string   `json:"type"`
		Urgency     string   `json:"urgency"`
		DueDate     string   `json:"due_date"`
		GoalID      string   `json:"goal_id"`
		TeamHeadID  string   `json:"team_head_id"`
		AssigneeIDs []string `json:"assignee_ids"`
		DocumentIDs []string `json:"document_ids"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("title", payload.Title, "title is required")
	v.Required("type", payload.Type, "type is required")
	v.Enum("type", payload.Type, initiatives.Types, "unknown initiative type")
	v.Enum("urgency", payload.Urgency, initiatives.Urgencies, "unknown urgency")
	v.Required("due_date", payload.DueDate, "due date is required")
	due := v.OptionalDate("due_date", payload.DueDate)
	v.UUID("goal_id", payload.GoalID)
	v.UUID("team_head_id", payload.TeamHeadID)
	v.UUIDs("assignee_ids", payload.AssigneeIDs)
	v.UUIDs("document_ids", payload.DocumentIDs)
	if len(payload.AssigneeIDs) == 0 {
		v.Add("assignee_ids", "at least one assignee is required")
	}
	if v.Reject(w, r) {
		return
	}
	initiative, err := h.Service.Create(r.Context(), p, initiatives.CreateInput{
		Title:       payload.Title,
		Description: payload.Description,
		Type:        payload.Type,
		Urgency:     payload.Urgency,
		DueDate:     due,
		GoalID:      payload.GoalID,
		TeamHeadID:  payload.TeamHeadID,
		AssigneeIDs: payload.AssigneeIDs,
		DocumentIDs: payload.DocumentIDs,
	})
	if err != nil {
		shared.FailError(w, r, err, "initiative_create_failed", "failed to create initiative")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "initiative.create", "initiative", initiative.ID, nil, initiative))
	api.Created(w, initiative)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "initiativeID")
	if !ok {
		return
	}
	initiative, err := h.Service.Get(r.Context(), p, id)
	if err != nil {
		shared.FailError(w, r, err, "initiative_get_failed", "failed to load initiative")
		return
	}
	api.Success(w, initiative)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "initiativeID")
	if !ok {
		return
	}
	var payload struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Urgency     *string `json:"urgency"`
		DueDate     *string `json:"due_date"`
		GoalID      *string `json:"goal_id"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	in := initiatives.UpdateInput{Title: payload.Title, Description: payload.Description, Urgency: payload.Urgency, GoalID: payload.GoalID}
	if payload.Title != nil {
		v.Required("title", *payload.Title, "title cannot be empty")
	}
	if payload.Urgency != nil {
		v.Enum("urgency", *payload.Urgency, initiatives.Urgencies, "unknown urgency")
	}
	if payload.DueDate != nil {
		in.DueDate = v.OptionalDate("due_date", *payload.DueDate)
	}
	if payload.GoalID != nil {
		v.UUID("goal_id", *payload.GoalID)
	}
	if v.Reject(w, r) {
		return
	}
	initiative, err := h.Service.Update(r.Context(), p, id, in)
	if err != nil {
		shared.FailError(w, r, err, "initiative_update_failed", "failed to update initiative")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "initiative.update", "initiative", id, nil, initiative))
	api.Success(w, initiative)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "initiativeID")
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), p, id); err != nil {
		shared.FailError(w, r, err, "initiative_delete_failed", "failed to delete initiative")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "initiative.delete", "initiative", id, nil, nil))
	api.NoContent(w)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "initiativeID")
	if !ok {
		return
	}
	var payload struct {
		Approved *bool  `json:"approved"`
		Reason   string `json:"reason"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	if payload.Approved == nil {
		v.Add("approved", "approved is required")
	}
	if v.Reject(w, r) {
		return
	}
	initiative, err := h.Service.Approve(r.Context(), p, id, *payload.Approved, payload.Reason)
	if err != nil {
		shared.FailError(w, r, err, "initiative_approve_failed", "failed to review initiative request")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "initiative.approve", "initiative", id, nil, payload))
	api.Success(w, initiative)
}

// transition wraps the assignee-driven status moves that take no body.
func (h *Handler) transition(action string, move func(context.Context, access.Principal, string) (initiatives.Initiative, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := shared.Principal(w, r)
		if !ok {
			return
		}
		id, ok := shared.IDParam(w, r, "initiativeID")
		if !ok {
			return
		}
		initiative, err := move(r.Context(), p, id)
		if err != nil {
			shared.FailError(w, r, err, "initiative_"+action+"_failed", "failed to "+action+" initiative")
			return
		}
		h.Audit.Log(r.Context(), shared.AuditEntry(r, "initiative."+action, "initiative", id, nil, map[string]string{"status": initiative.Status}))
		api.Success(w, initiative)
	}
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "initiativeID")
	if !ok {
		return
	}
	var payload struct {
		Status string `json:"status"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	payload.Status = strings.ToUpper(strings.TrimSpace(payload.Status))
	v := shared.NewValidator()
	v.Required("status", payload.Status, "status is required")
	v.Enum("status", payload.Status, initiatives.Statuses, "unknown initiative status")
	if v.Reject(w, r) {
		return
	}
	initiative, err := h.Service.ChangeStatus(r.Context(), p, id, payload.Status)
	if err != nil {
		shared.FailError(w, r, err, "initiative_status_failed", "failed to change initiative status")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "initiative.status", "initiative", id, nil, payload))
	api.Success(w, initiative)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "initiativeID")
	if !ok {
		return
	}
	var payload struct {
		Report      string   `json:"report"`
		DocumentIDs []string `json:"document_ids"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("report", payload.Report, "a report is required")
	v.UUIDs("document_ids", payload.DocumentIDs)
	if v.Reject(w, r) {
		return
	}
	submission, err := h.Service.Submit(r.Context(), p, id, payload.Report, payload.DocumentIDs)
	if err != nil {
		shared.FailError(w, r, err, "initiative_submit_failed", "failed to submit initiative")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "initiative.submit", "initiative", id, nil, submission))
	api.Created(w, submission)
}

func (h *Handler) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "initiativeID")
	if !ok {
		return
	}
	items, err := h.Service.Submissions(r.Context(), p, id)
	if err != nil {
		shared.FailError(w, r, err, "initiative_submissions_failed", "failed to list submissions")
		return
	}
	api.Success(w, items)
}

func (h *Handler) handleLatestSubmission(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "initiativeID")
	if !ok {
		return
	}
	submission, err := h.Service.LatestSubmission(r.Context(), p, id)
	if err != nil {
		shared.FailError(w, r, err, "initiative_submissions_failed", "failed to load submission")
		return
	}
	api.Success(w, submission)
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "initiativeID")
	if !ok {
		return
	}
	var payload struct {
		Score    *int   `json:"score"`
		Approved *bool  `json:"approved"`
		Feedback string `json:"feedback"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	if payload.Approved == nil {
		v.Add("approved", "approved is required")
	}
	if payload.Score == nil {
		v.Add("score", "score is required")
	} else if *payload.Score < 1 || *payload.Score > 10 {
		v.Add("score", "must be between 1 and 10")
	}
	if v.Reject(w, r) {
		return
	}
	initiative, err := h.Service.Review(r.Context(), p, id, *payload.Score, *payload.Approved, payload.Feedback)
	if err != nil {
		shared.FailError(w, r, err, "initiative_review_failed", "failed to review initiative")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "initiative.review", "initiative", id, nil, payload))
	api.Success(w, initiative)
}

func (h *Handler) handleRequestExtension(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "initiativeID")
	if !ok {
		return
	}
	var payload struct {
		NewDueDate string `json:"new_due_date"`
		Reason     string `json:"reason"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("reason", payload.Reason, "a reason is required")
	due, _ := v.Date("new_due_date", payload.NewDueDate)
	if v.Reject(w, r) {
		return
	}
	ext, err := h.Service.RequestExtension(r.Context(), p, id, due, payload.Reason)
	if err != nil {
		shared.FailError(w, r, err, "extension_request_failed", "failed to request extension")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "initiative.extension_request", "initiative", id, nil, ext))
	api.Created(w, ext)
}

func (h *Handler) handleReviewExtension(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "initiativeID")
	if !ok {
		return
	}
	extID, ok := shared.IDParam(w, r, "extensionID")
	if !ok {
		return
	}
	var payload struct {
		Approved *bool  `json:"approved"`
		Reason   string `json:"reason"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	if payload.Approved == nil {
		v.Add("approved", "approved is required")
	}
	if v.Reject(w, r) {
		return
	}
	ext, err := h.Service.ReviewExtension(r.Context(), p, id, extID, *payload.Approved, payload.Reason)
	if err != nil {
		shared.FailError(w, r, err, "extension_review_failed", "failed to review extension")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "initiative.extension_review", "initiative", id, nil, ext))
	api.Success(w, ext)
}

func (h *Handler) handleDocuments(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "initiativeID")
	if !ok {
		return
	}
	docs, err := h.Service.Documents(r.Context(), p, id)
	if err != nil {
		shared.FailError(w, r, err, "initiative_documents_failed", "failed to list documents")
		return
	}
	api.Success(w, docs)
}

// handleUploadDocument serves both the attached and the unattached upload
// routes; the initiative id is empty on the latter.
func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	initiativeID := ""
	if chi.URLParam(r, "initiativeID") != "" {
		if initiativeID, ok = shared.IDParam(w, r, "initiativeID"); !ok {
			return
		}
	}
	upload, ok := shared.FormFile(w, r, "file")
	if !ok {
		return
	}
	defer upload.File.Close()
	doc, err := h.Service.UploadDocument(r.Context(), p, initiativeID, upload.FileName, upload.ContentType, upload.Size, upload.File)
	if err != nil {
		shared.FailError(w, r, err, "document_upload_failed", "failed to upload document")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "initiative.document_upload", "document", doc.ID, nil, doc))
	api.Created(w, doc)
}

func (h *Handler) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	docID, ok := shared.IDParam(w, r, "documentID")
	if !ok {
		return
	}
	doc, obj, err := h.Service.OpenDocument(r.Context(), p, docID)
	if err != nil {
		shared.FailError(w, r, err, "document_download_failed", "failed to open document")
		return
	}
	defer obj.Body.Close()
	contentType := obj.ContentType
	if contentType == "" {
		contentType = doc.ContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	if _, err := io.Copy(w, obj.Body); err != nil {
		slog.Warn("document stream failed", "documentId", docID, "err", err)
	}
}
