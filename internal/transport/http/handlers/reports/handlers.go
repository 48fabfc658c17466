package reportshandler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/auth"
	"pms/internal/domain/reports"
	"pms/internal/platform/jobs"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
	"pms/internal/transport/http/shared"
)

var jobStatuses = []string{"running", "completed", "failed"}

type Handler struct {
	Service *reports.Service
}

func NewHandler(service *reports.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/dashboard/me", h.handlePersonal)
		r.Get("/dashboard/team", h.handleTeam)
		r.Get("/dashboard/organization", h.handleOrganization)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(auth.PermSystemAdmin))
			r.Get("/jobs", h.handleJobRuns)
			r.Post("/jobs/run", h.handleTriggerJob)
			r.Get("/jobs/{runID}", h.handleJobRun)
		})
	})
}

func (h *Handler) handlePersonal(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	out, err := h.Service.Personal(r.Context(), p)
	if err != nil {
		shared.FailError(w, r, err, "dashboard_failed", "failed to load dashboard")
		return
	}
	api.Success(w, out)
}

func (h *Handler) handleTeam(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	out, err := h.Service.Team(r.Context(), p)
	if err != nil {
		shared.FailError(w, r, err, "dashboard_failed", "failed to load team dashboard")
		return
	}
	api.Success(w, out)
}

func (h *Handler) handleOrganization(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	out, err := h.Service.Organization(r.Context(), p)
	if err != nil {
		shared.FailError(w, r, err, "dashboard_failed", "failed to load organization dashboard")
		return
	}
	api.Success(w, out)
}

func (h *Handler) handleJobRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v := shared.NewValidator()
	v.Enum("job_type", q.Get("job_type"), jobs.Types, "unknown job type")
	v.Enum("status", q.Get("status"), jobStatuses, "unknown job status")
	from := v.OptionalDate("started_from", q.Get("started_from"))
	to := v.OptionalDate("started_to", q.Get("started_to"))
	if from != nil && to != nil {
		v.DateOrder("started_from", *from, "started_to", *to)
	}
	if v.Reject(w, r) {
		return
	}
	if to != nil {
		// inclusive of the whole end day
		end := to.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}

	page := shared.ParsePagination(r, shared.DefaultLimit, shared.MaxLimit)
	runs, total, err := h.Service.JobRuns(r.Context(), reports.JobRunFilter{
		JobType:     q.Get("job_type"),
		Status:      q.Get("status"),
		StartedFrom: from,
		StartedTo:   to,
		Limit:       page.Limit,
		Offset:      page.Offset,
	})
	if err != nil {
		shared.FailError(w, r, err, "job_runs_failed", "failed to list job runs")
		return
	}
	api.List(w, runs, total)
}

func (h *Handler) handleJobRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := shared.IDParam(w, r, "runID")
	if !ok {
		return
	}
	run, err := h.Service.JobRun(r.Context(), runID)
	if err != nil {
		shared.FailError(w, r, err, "job_run_failed", "failed to load job run")
		return
	}
	api.Success(w, run)
}

type triggerPayload struct {
	JobType string `json:"job_type"`
}

func (h *Handler) handleTriggerJob(w http.ResponseWriter, r *http.Request) {
	var payload triggerPayload
	if !shared.Decode(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("job_type", payload.JobType, "job_type is required")
	v.Enum("job_type", payload.JobType, jobs.Types, "unknown job type")
	if v.Reject(w, r) {
		return
	}
	if err := h.Service.TriggerJob(payload.JobType); err != nil {
		shared.FailError(w, r, err, "job_trigger_failed", "failed to queue job")
		return
	}
	api.WriteJSON(w, http.StatusAccepted, map[string]string{"job_type": payload.JobType, "status": "queued"})
}
