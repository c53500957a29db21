package server

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"whiskyrec/internal/backend"
	"whiskyrec/internal/catalog"
	"whiskyrec/internal/db"
	"whiskyrec/internal/form"
	"whiskyrec/internal/handlers"
	"whiskyrec/internal/handlers/api"
	"whiskyrec/internal/middleware"
)

// Deps are the components the routes are built from. Recorder, DB and
// History are nil when persistence is disabled; Gatherer defaults to the
// global registry.
type Deps struct {
	Store    *catalog.Store
	Backend  *backend.Client
	Guard    *form.Guard
	Recorder *db.Recorder
	DB       *db.DB
	History  api.HistoryStore
	Gatherer prometheus.Gatherer
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(ctx context.Context, d Deps) error {
	if d.Guard == nil {
		d.Guard = form.NewGuard()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	// nil-safe recorders: a typed nil must not reach the interfaces.
	var recorder handlers.Recorder = handlers.NopRecorder{}
	if d.Recorder != nil {
		recorder = d.Recorder
	}
	var pinger api.Pinger
	if d.DB != nil {
		pinger = d.DB
	}

	authMiddleware := middleware.NewAuthMiddleware("/auth/login")

	pageHandler := handlers.NewPageHandler(d.Store, s.Cfg)
	syncHandler := handlers.NewSyncHandler(d.Store)
	recommendHandler := handlers.NewRecommendHandler(d.Backend, d.Guard, recorder)
	feedbackHandler := handlers.NewFeedbackHandler(d.Backend, d.Guard, recorder, s.Cfg)

	apiCatalog := api.NewCatalogHandler(d.Store)
	apiRecommend := api.NewRecommendHandler(d.Backend, recorder)
	apiFeedback := api.NewFeedbackHandler(d.Backend, recorder)
	apiHealth := api.NewHealthHandler(d.Store, pinger)

	// Auth routes, only when OIDC is configured
	protect := authMiddleware.OptionalAuth
	if s.Cfg.IsAuthEnabled() {
		authHandler, err := handlers.NewAuthHandler(ctx, s.Cfg)
		if err != nil {
			return err
		}
		s.App.Get("/auth/login", authHandler.Login)
		s.App.Get("/auth/callback", authHandler.Callback)
		s.App.Get("/auth/logout", authHandler.Logout)
		protect = authMiddleware.RequireAuth
	} else {
		slog.Info("oidc sign-in disabled, set OIDC_ISSUER to enable")
	}

	// Operational routes
	s.App.Get("/healthz", apiHealth.Healthz)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	// Form page and its HTMX partials
	s.App.Get("/", authMiddleware.OptionalAuth, pageHandler.Index)
	s.App.Get("/slots/:slot/whiskies", syncHandler.Whiskies)
	s.App.Post("/slots/:slot/whisky", syncHandler.SelectWhisky)
	s.App.Post("/recommendation", recommendHandler.Recommend)
	s.App.Get("/feedback/fields", feedbackHandler.Toggle)
	s.App.Post("/feedback", authMiddleware.OptionalAuth, feedbackHandler.Submit)

	// JSON API
	apiGroup := s.App.Group("/api")
	apiGroup.Get("/catalog/distilleries", apiCatalog.Distilleries)
	apiGroup.Get("/catalog/distilleries/:name/whiskies", apiCatalog.Whiskies)
	apiGroup.Post("/catalog/reload", protect, apiCatalog.Reload)
	apiGroup.Post("/recommend", apiRecommend.Recommend)
	apiGroup.Post("/feedback", authMiddleware.OptionalAuth, apiFeedback.Submit)

	// Stored history carries visitor feedback, so it is only served to
	// signed-in users.
	switch {
	case d.History == nil:
	case !s.Cfg.IsAuthEnabled():
		slog.Info("history api disabled, it requires oidc sign-in")
	default:
		history := api.NewHistoryHandler(d.History)
		apiGroup.Get("/feedback", protect, history.Feedback)
		apiGroup.Get("/feedback/:id", protect, history.FeedbackByID)
		apiGroup.Get("/recommendations", protect, history.Recommendations)
		apiGroup.Get("/recommendations/:id", protect, history.RecommendationByID)
	}

	return nil
}
