package reviewshandler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/audit"
	"pms/internal/domain/reviews"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/shared"
)

type Handler struct {
	Service *reviews.Service
	Audit   *audit.Service
}

func NewHandler(service *reviews.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reviews", func(r chi.Router) {
		r.Route("/cycles", func(r chi.Router) {
			r.Get("/", h.handleListCycles)
			r.Post("/", h.handleCreateCycle)
			r.Route("/{cycleID}", func(r chi.Router) {
				r.Get("/", h.handleGetCycle)
				r.Put("/", h.handleUpdateCycle)
				r.Delete("/", h.handleDeleteCycle)
				r.Put("/traits", h.handleSetCycleTraits)
				r.Post("/activate", h.handleActivate)
				r.Post("/cancel", h.handleCancel)
				r.Post("/recompute", h.handleRecompute)
				r.Get("/dashboard", h.handleDashboard)
				r.Get("/progress", h.handleUserProgress)
				r.Get("/users/{userID}/scores", h.handleUserScores)
			})
		})
		r.Route("/traits", func(r chi.Router) {
			r.Get("/", h.handleListTraits)
			r.Post("/", h.handleCreateTrait)
			r.Route("/{traitID}", func(r chi.Router) {
				r.Get("/", h.handleGetTrait)
				r.Put("/", h.handleUpdateTrait)
				r.Delete("/", h.handleDeleteTrait)
				r.Get("/questions", h.handleTraitQuestions)
				r.Post("/questions", h.handleCreateQuestion)
			})
		})
		r.Put("/questions/{questionID}", h.handleUpdateQuestion)
		r.Delete("/questions/{questionID}", h.handleDeleteQuestion)
		r.Get("/assignments", h.handleMyAssignments)
		r.Get("/assignments/{assignmentID}/form", h.handleForm)
		r.Post("/assignments/{assignmentID}/submit", h.handleSubmit)
	})
}

type cyclePayload struct {
	Name       *string             `json:"name"`
	Type       *string             `json:"type"`
	Period     *string             `json:"period"`
	StartDate  *string             `json:"start_date"`
	EndDate    *string             `json:"end_date"`
	Components *reviews.Components `json:"components"`
	TraitIDs   []string            `json:"trait_ids"`
}

func (p cyclePayload) dates(v *shared.Validator) (start, end *time.Time) {
	if p.StartDate != nil {
		start = v.OptionalDate("start_date", *p.StartDate)
	}
	if p.EndDate != nil {
		end = v.OptionalDate("end_date", *p.EndDate)
	}
	if start != nil && end != nil {
		v.DateOrder("start_date", *start, "end_date", *end)
	}
	if p.Components != nil && p.Components.PeerCount != nil && *p.Components.PeerCount < 0 {
		v.Add("components.peer_count", "must not be negative")
	}
	return start, end
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (h *Handler) handleListCycles(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")
	v := shared.NewValidator()
	v.Enum("status", status, reviews.CycleStatuses, "unknown cycle status")
	if v.Reject(w, r) {
		return
	}
	cycles, err := h.Service.ListCycles(r.Context(), p, status)
	if err != nil {
		shared.FailError(w, r, err, "cycle_list_failed", "failed to list review cycles")
		return
	}
	api.List(w, cycles, len(cycles))
}

func (h *Handler) handleCreateCycle(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	var payload cyclePayload
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", deref(payload.Name), "name is required")
	v.Required("type", deref(payload.Type), "type is required")
	v.Required("start_date", deref(payload.StartDate), "start date is required")
	v.Required("end_date", deref(payload.EndDate), "end date is required")
	v.UUIDs("trait_ids", payload.TraitIDs)
	start, end := payload.dates(v)
	if v.Reject(w, r) {
		return
	}
	cycle, err := h.Service.CreateCycle(r.Context(), p, reviews.CycleInput{
		Name:       deref(payload.Name),
		Type:       deref(payload.Type),
		Period:     deref(payload.Period),
		StartDate:  start,
		EndDate:    end,
		Components: payload.Components,
		TraitIDs:   payload.TraitIDs,
	})
	if err != nil {
		shared.FailError(w, r, err, "cycle_create_failed", "failed to create review cycle")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "review_cycle.create", "review_cycle", cycle.ID, nil, cycle))
	api.Created(w, cycle)
}

func (h *Handler) handleGetCycle(w http.ResponseWriter, r *http.Request) {
	cycleID, ok := shared.IDParam(w, r, "cycleID")
	if !ok {
		return
	}
	cycle, err := h.Service.GetCycle(r.Context(), cycleID)
	if err != nil {
		shared.FailError(w, r, err, "cycle_get_failed", "failed to load review cycle")
		return
	}
	api.Success(w, cycle)
}

func (h *Handler) handleUpdateCycle(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	cycleID, ok := shared.IDParam(w, r, "cycleID")
	if !ok {
		return
	}
	var payload cyclePayload
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	if payload.Name != nil {
		v.Required("name", *payload.Name, "name cannot be empty")
	}
	start, end := payload.dates(v)
	if v.Reject(w, r) {
		return
	}
	cycle, err := h.Service.UpdateCycle(r.Context(), p, cycleID, reviews.CycleUpdate{
		Name:       payload.Name,
		Type:       payload.Type,
		Period:     payload.Period,
		StartDate:  start,
		EndDate:    end,
		Components: payload.Components,
	})
	if err != nil {
		shared.FailError(w, r, err, "cycle_update_failed", "failed to update review cycle")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "review_cycle.update", "review_cycle", cycleID, nil, cycle))
	api.Success(w, cycle)
}

func (h *Handler) handleSetCycleTraits(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	cycleID, ok := shared.IDParam(w, r, "cycleID")
	if !ok {
		return
	}
	var payload struct {
		TraitIDs []string `json:"trait_ids"`
	}
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.UUIDs("trait_ids", payload.TraitIDs)
	if v.Reject(w, r) {
		return
	}
	cycle, err := h.Service.SetCycleTraits(r.Context(), p, cycleID, payload.TraitIDs)
	if err != nil {
		shared.FailError(w, r, err, "cycle_traits_failed", "failed to set cycle traits")
		return
	}
	api.Success(w, cycle)
}

func (h *Handler) handleDeleteCycle(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	cycleID, ok := shared.IDParam(w, r, "cycleID")
	if !ok {
		return
	}
	if err := h.Service.DeleteCycle(r.Context(), p, cycleID); err != nil {
		shared.FailError(w, r, err, "cycle_delete_failed", "failed to delete review cycle")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "review_cycle.delete", "review_cycle", cycleID, nil, nil))
	api.NoContent(w)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	cycleID, ok := shared.IDParam(w, r, "cycleID")
	if !ok {
		return
	}
	cycle, err := h.Service.CancelCycle(r.Context(), p, cycleID)
	if err != nil {
		shared.FailError(w, r, err, "cycle_cancel_failed", "failed to cancel review cycle")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "review_cycle.cancel", "review_cycle", cycleID, nil, cycle))
	api.Success(w, cycle)
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	cycleID, ok := shared.IDParam(w, r, "cycleID")
	if !ok {
		return
	}
	cycle, err := h.Service.Activate(r.Context(), p, cycleID)
	if err != nil {
		shared.FailError(w, r, err, "cycle_activate_failed", "failed to activate review cycle")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "review_cycle.activate", "review_cycle", cycleID, nil, cycle))
	api.Success(w, cycle)
}

func (h *Handler) handleRecompute(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	cycleID, ok := shared.IDParam(w, r, "cycleID")
	if !ok {
		return
	}
	scored, err := h.Service.Recompute(r.Context(), p, cycleID)
	if err != nil {
		shared.FailError(w, r, err, "cycle_recompute_failed", "failed to recompute review scores")
		return
	}
	api.Success(w, map[string]int{"scored_users": scored})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	cycleID, ok := shared.IDParam(w, r, "cycleID")
	if !ok {
		return
	}
	dashboard, err := h.Service.Dashboard(r.Context(), p, cycleID)
	if err != nil {
		shared.FailError(w, r, err, "cycle_dashboard_failed", "failed to load review dashboard")
		return
	}
	api.Success(w, dashboard)
}

func (h *Handler) handleUserProgress(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	cycleID, ok := shared.IDParam(w, r, "cycleID")
	if !ok {
		return
	}
	progress, err := h.Service.UserProgress(r.Context(), p, cycleID)
	if err != nil {
		shared.FailError(w, r, err, "cycle_progress_failed", "failed to load review progress")
		return
	}
	api.Success(w, progress)
}

func (h *Handler) handleUserScores(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	cycleID, ok := shared.IDParam(w, r, "cycleID")
	if !ok {
		return
	}
	userID, ok := shared.IDParam(w, r, "userID")
	if !ok {
		return
	}
	scores, err := h.Service.UserScores(r.Context(), p, userID, cycleID)
	if err != nil {
		shared.FailError(w, r, err, "user_scores_failed", "failed to load review scores")
		return
	}
	api.Success(w, scores)
}

func (h *Handler) handleListTraits(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	traits, err := h.Service.ListTraits(r.Context(), p, shared.QueryBool(r, "include_inactive"))
	if err != nil {
		shared.FailError(w, r, err, "trait_list_failed", "failed to list traits")
		return
	}
	api.List(w, traits, len(traits))
}

func (h *Handler) handleGetTrait(w http.ResponseWriter, r *http.Request) {
	traitID, ok := shared.IDParam(w, r, "traitID")
	if !ok {
		return
	}
	trait, err := h.Service.GetTrait(r.Context(), traitID)
	if err != nil {
		shared.FailError(w, r, err, "trait_get_failed", "failed to load trait")
		return
	}
	api.Success(w, trait)
}

func (h *Handler) handleCreateTrait(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	var payload reviews.TraitInput
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Enum("scope_type", payload.ScopeType, reviews.TraitScopes, "unknown trait scope")
	v.UUID("organization_id", payload.OrganizationID)
	if v.Reject(w, r) {
		return
	}
	trait, err := h.Service.CreateTrait(r.Context(), p, payload)
	if err != nil {
		shared.FailError(w, r, err, "trait_create_failed", "failed to create trait")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "trait.create", "trait", trait.ID, nil, trait))
	api.Created(w, trait)
}

func (h *Handler) handleUpdateTrait(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	traitID, ok := shared.IDParam(w, r, "traitID")
	if !ok {
		return
	}
	var payload reviews.TraitUpdate
	if !shared.Decode(w, r, &payload) {
		return
	}
	if payload.Name != nil {
		v := shared.NewValidator()
		v.Required("name", *payload.Name, "name cannot be empty")
		if v.Reject(w, r) {
			return
		}
	}
	trait, err := h.Service.UpdateTrait(r.Context(), p, traitID, payload)
	if err != nil {
		shared.FailError(w, r, err, "trait_update_failed", "failed to update trait")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "trait.update", "trait", traitID, nil, trait))
	api.Success(w, trait)
}

func (h *Handler) handleDeleteTrait(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	traitID, ok := shared.IDParam(w, r, "traitID")
	if !ok {
		return
	}
	if err := h.Service.DeleteTrait(r.Context(), p, traitID); err != nil {
		shared.FailError(w, r, err, "trait_delete_failed", "failed to delete trait")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "trait.delete", "trait", traitID, nil, nil))
	api.NoContent(w)
}

func (h *Handler) handleTraitQuestions(w http.ResponseWriter, r *http.Request) {
	traitID, ok := shared.IDParam(w, r, "traitID")
	if !ok {
		return
	}
	questions, err := h.Service.TraitQuestions(r.Context(), traitID)
	if err != nil {
		shared.FailError(w, r, err, "question_list_failed", "failed to list questions")
		return
	}
	api.Success(w, questions)
}

func (h *Handler) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	traitID, ok := shared.IDParam(w, r, "traitID")
	if !ok {
		return
	}
	var payload reviews.QuestionInput
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("question_text", payload.Text, "question text is required")
	if v.Reject(w, r) {
		return
	}
	question, err := h.Service.CreateQuestion(r.Context(), p, traitID, payload)
	if err != nil {
		shared.FailError(w, r, err, "question_create_failed", "failed to create question")
		return
	}
	api.Created(w, question)
}

func (h *Handler) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	questionID, ok := shared.IDParam(w, r, "questionID")
	if !ok {
		return
	}
	var payload reviews.QuestionUpdate
	if !shared.Decode(w, r, &payload) {
		return
	}
	question, err := h.Service.UpdateQuestion(r.Context(), p, questionID, payload)
	if err != nil {
		shared.FailError(w, r, err, "question_update_failed", "failed to update question")
		return
	}
	api.Success(w, question)
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	questionID, ok := shared.IDParam(w, r, "questionID")
	if !ok {
		return
	}
	if err := h.Service.DeleteQuestion(r.Context(), p, questionID); err != nil {
		shared.FailError(w, r, err, "question_delete_failed", "failed to delete question")
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleMyAssignments(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	assignments, err := h.Service.MyAssignments(r.Context(), p)
	if err != nil {
		shared.FailError(w, r, err, "assignment_list_failed", "failed to list review assignments")
		return
	}
	api.Success(w, assignments)
}

func (h *Handler) handleForm(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	assignmentID, ok := shared.IDParam(w, r, "assignmentID")
	if !ok {
		return
	}
	form, err := h.Service.Form(r.Context(), p, assignmentID)
	if err != nil {
		shared.FailError(w, r, err, "review_form_failed", "failed to load review form")
		return
	}
	api.Success(w, form)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	assignmentID, ok := shared.IDParam(w, r, "assignmentID")
	if !ok {
		return
	}
	var payload reviews.SubmitInput
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	for _, resp := range payload.Responses {
		v.UUID("responses.question_id", resp.QuestionID)
		if resp.Rating != nil && (*resp.Rating < reviews.MinRating || *resp.Rating > reviews.MaxRating) {
			v.Add("responses.rating", "ratings must be between 1 and 10")
		}
	}
	if v.Reject(w, r) {
		return
	}
	result, err := h.Service.Submit(r.Context(), p, assignmentID, payload)
	if err != nil {
		shared.FailError(w, r, err, "review_submit_failed", "failed to submit review")
		return
	}
	if !payload.IsDraft {
		h.Audit.Log(r.Context(), shared.AuditEntry(r, "review.submit", "review_assignment", assignmentID, nil, result))
	}
	api.Success(w, result)
}
