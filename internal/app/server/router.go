package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pms/internal/domain/auth"
	"pms/internal/domain/notifications"
	"pms/internal/platform/config"
	"pms/internal/platform/metrics"
	"pms/internal/transport/http/api"
	audithandler "pms/internal/transport/http/handlers/audit"
	authhandler "pms/internal/transport/http/handlers/auth"
	corehandler "pms/internal/transport/http/handlers/core"
	goalshandler "pms/internal/transport/http/handlers/goals"
	initiativeshandler "pms/internal/transport/http/handlers/initiatives"
	notificationshandler "pms/internal/transport/http/handlers/notifications"
	performancehandler "pms/internal/transport/http/handlers/performance"
	reportshandler "pms/internal/transport/http/handlers/reports"
	reviewshandler "pms/internal/transport/http/handlers/reviews"
	"pms/internal/transport/http/middleware"
)

// NewRouter builds the full HTTP surface. pool may be nil in tests, which
// makes /readyz report unavailable. A nil limits keeps rate limit counts in
// process memory.
func NewRouter(cfg config.Config, pool *pgxpool.Pool, svc *Services, hub *notifications.Hub, collector *metrics.Collector, limits middleware.RateCounter) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recover)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes, cfg.MaxUploadBytes))
	router.Use(middleware.Auth(svc.Auth, svc.Access))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, middleware.WithCounter(limits)))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute, middleware.WithCounter(limits)))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if pool == nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	notificationsHandler := notificationshandler.NewHandler(svc.Notifications, hub, svc.Audit, svc.Auth, svc.Access, cfg.CORSAllowedOrigins)

	router.Route("/api", func(r chi.Router) {
		authhandler.NewHandler(svc.Auth, svc.Core, svc.Audit).RegisterRoutes(r)
		notificationsHandler.RegisterSocket(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			corehandler.NewHandler(svc.Core, svc.Audit).RegisterRoutes(r)
			goalshandler.NewHandler(svc.Goals, svc.Audit).RegisterRoutes(r)
			initiativeshandler.NewHandler(svc.Initiatives, svc.Audit).RegisterRoutes(r)
			reviewshandler.NewHandler(svc.Reviews, svc.Audit).RegisterRoutes(r)
			performancehandler.NewHandler(svc.Performance, svc.Audit).RegisterRoutes(r)
			reportshandler.NewHandler(svc.Reports).RegisterRoutes(r)
			notificationsHandler.RegisterRoutes(r)
			audithandler.NewHandler(svc.Audit).RegisterRoutes(r)

			if cfg.MetricsEnabled {
				r.With(middleware.RequirePermission(auth.PermSystemAdmin)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
					api.Success(w, collector.Snapshot())
				})
			}
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
		})
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})
	return router
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	if !strings.HasPrefix(path, filepath.Clean(h.staticPath)) {
		http.NotFound(w, r)
		return
	}
	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	index := filepath.Join(h.staticPath, h.indexPath)
	if _, statErr := os.Stat(index); statErr == nil && (err == nil || os.IsNotExist(err)) {
		http.ServeFile(w, r, index)
		return
	}

	http.NotFound(w, r)
}
