package performancehandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/audit"
	"pms/internal/domain/auth"
	"pms/internal/domain/performance"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
	"pms/internal/transport/http/shared"
)

type Handler struct {
	Service *performance.Service
	Audit   *audit.Service
}

func NewHandler(service *performance.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/performance/cycles/{cycleID}", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPerformanceEdit)).Post("/calculate", h.handleCalculate)
		r.With(middleware.RequirePermission(auth.PermPerformanceViewAll)).Get("/leaderboard", h.handleLeaderboard)
		r.Get("/me", h.handleMine)
		r.Get("/users/{userID}", h.handleGet)
		r.Get("/users/{userID}/report", h.handleReport)
	})
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	cycleID, ok := shared.IDParam(w, r, "cycleID")
	if !ok {
		return
	}
	board, err := h.Service.Calculate(r.Context(), p, cycleID)
	if err != nil {
		shared.FailError(w, r, err, "performance_calculate_failed", "failed to calculate performance scores")
		return
	}
	h.Audit.Log(r.Context(), shared.AuditEntry(r, "performance.calculate", "review_cycle", cycleID, nil, board.Summary))
	api.Success(w, board)
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	cycleID, ok := shared.IDParam(w, r, "cycleID")
	if !ok {
		return
	}
	board, err := h.Service.Leaderboard(r.Context(), p, cycleID)
	if err != nil {
		shared.FailError(w, r, err, "performance_leaderboard_failed", "failed to load leaderboard")
		return
	}
	api.Success(w, board)
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.Principal(w, r)
	if !ok {
		return
	}
	cycleID, ok := shared.IDParam(w, r, "cycleID")
	if !ok {
		return
	}
	score, err := h.Service.Get(r.Context(), p, cycleID, p.UserID)
	if err != nil {
		shared.FailError(w, r, err, "performance_get_failed", "failed to load performance score")
		return
	}
	api.Success(w, score)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
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
	score, err := h.Service.Get(r.Context(), p, cycleID, userID)
	if err != nil {
		shared.FailError(w, r, err, "performance_get_failed", "failed to load performance score")
		return
	}
	api.Success(w, score)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
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
	pdf, err := h.Service.Report(r.Context(), p, cycleID, userID)
	if err != nil {
		shared.FailError(w, r, err, "performance_report_failed", "failed to render performance report")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="performance-`+userID+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
