package server

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"pms/internal/domain/access"
	"pms/internal/domain/audit"
	"pms/internal/domain/auth"
	"pms/internal/domain/core"
	"pms/internal/domain/goals"
	"pms/internal/domain/initiatives"
	"pms/internal/domain/notifications"
	"pms/internal/domain/performance"
	"pms/internal/domain/reports"
	"pms/internal/domain/reviews"
	"pms/internal/platform/config"
	"pms/internal/platform/email"
	"pms/internal/platform/jobs"
	"pms/internal/platform/storage"
)

// Services holds every domain service built over one pool. The CLI builds
// the same set without the HTTP layer.
type Services struct {
	Access        *access.Resolver
	Audit         *audit.Service
	Auth          *auth.Service
	Core          *core.Service
	Goals         *goals.Service
	Initiatives   *initiatives.Service
	Reviews       *reviews.Service
	Performance   *performance.Service
	Reports       *reports.Service
	Notifications *notifications.Service
	Dispatcher    *notifications.Dispatcher
	Jobs          *jobs.Service
}

// NewServices wires the domain layer. broker may be nil when nothing listens
// for live pushes, as in one-shot CLI commands.
func NewServices(pool *pgxpool.Pool, cfg config.Config, objects storage.Store, broker notifications.Publisher) *Services {
	mailer := email.New(cfg)

	dispatcher := notifications.NewDispatcher(cfg.NotifyWorkers, cfg.NotifyQueueSize, broker, mailer)
	dispatcher.EmailEnabled = cfg.EmailEnabled
	dispatcher.From = cfg.EmailFrom
	dispatcher.FrontendURL = cfg.FrontendURL

	notifier := notifications.NewService(notifications.NewStore(pool), dispatcher)
	notifier.OnFailure(dispatcher.CountFailure)

	resolver := access.NewResolver(access.NewStore(pool))

	authSvc := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authSvc.Mailer = mailer
	authSvc.From = cfg.EmailFrom
	authSvc.FrontendURL = cfg.FrontendURL

	coreSvc := core.NewService(core.NewStore(pool), resolver, objects)
	coreSvc.Mailer = mailer
	coreSvc.From = cfg.EmailFrom
	coreSvc.FrontendURL = cfg.FrontendURL

	reviewSvc := reviews.NewService(reviews.NewStore(pool), notifier, cfg.ReviewPeerCount)
	initiativeSvc := initiatives.NewService(initiatives.NewStore(pool), resolver, notifier, objects)
	jobsSvc := jobs.New(pool, cfg, reviewSvc, initiativeSvc)

	return &Services{
		Access:        resolver,
		Audit:         audit.New(pool),
		Auth:          authSvc,
		Core:          coreSvc,
		Goals:         goals.NewService(goals.NewStore(pool), resolver, notifier),
		Initiatives:   initiativeSvc,
		Reviews:       reviewSvc,
		Performance:   performance.NewService(performance.NewStore(pool), resolver),
		Reports:       reports.NewService(reports.NewStore(pool), resolver, jobsSvc),
		Notifications: notifier,
		Dispatcher:    dispatcher,
		Jobs:          jobsSvc,
	}
}
