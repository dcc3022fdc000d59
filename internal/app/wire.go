package app

import (
	"log/slog"

	"github.com/attaboy/faketoto/internal/auth"
	"github.com/attaboy/faketoto/internal/guard"
	"github.com/attaboy/faketoto/internal/handler"
	"github.com/attaboy/faketoto/internal/infra"
	"github.com/attaboy/faketoto/internal/metrics"
	"github.com/attaboy/faketoto/internal/session"
	"github.com/go-chi/chi/v5"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Sessions *session.Manager
	JWTMgr   *auth.JWTManager
	Logger   *slog.Logger
	Hub      *infra.WSHub
	Metrics  *metrics.Collector

	// Optional guards; nil disables them.
	Limiter     handler.Limiter
	Idempotency guard.Idempotency

	HealthChecks map[string]infra.Pinger
	CORSOrigins  string
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	origins := deps.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	hub := deps.Hub
	if hub == nil {
		hub = infra.NewWSHub(logger, handler.AllowOrigin(origins))
	}

	sessionHandler := handler.NewSessionHandler(deps.Sessions, deps.JWTMgr, deps.Limiter)
	walletHandler := handler.NewWalletHandler(deps.Sessions)
	sportsbookHandler := handler.NewSportsbookHandler(deps.Sessions, deps.Limiter, deps.Idempotency)
	ladderHandler := handler.NewLadderHandler(deps.Sessions, deps.Limiter)
	raceHandler := handler.NewRaceHandler(deps.Sessions, deps.Limiter)
	notificationHandler := handler.NewNotificationHandler(deps.Sessions, hub, logger)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORSWithOrigins(origins))

	// Health and metrics (no auth)
	r.With(handler.JSONContentType).Get("/health", handler.HealthHandler(deps.HealthChecks))
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	// Session-authenticated WebSocket stream (token via access_token query)
	r.With(auth.AuthenticateSession(deps.JWTMgr), handler.TagSession).Get("/notifications/stream", notificationHandler.Stream)

	r.Group(func(r chi.Router) {
		r.Use(handler.JSONContentType)

		r.Post("/sessions", sessionHandler.Create)
		r.Get("/modes", sessionHandler.ListModes)

		r.Group(func(r chi.Router) {
			r.Use(auth.AuthenticateSession(deps.JWTMgr))
			r.Use(handler.TagSession)

			r.Delete("/sessions/me", sessionHandler.Close)
			r.Get("/modes/{mode}", sessionHandler.Mode)

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/balance", walletHandler.GetBalance)
				r.Post("/reset", walletHandler.Reset)
				r.Get("/quick-stakes", walletHandler.QuickStakes)
			})

			r.Route("/sportsbook", func(r chi.Router) {
				r.Get("/matches", sportsbookHandler.ListMatches)
				r.Post("/selections", sportsbookHandler.Select)
				r.Get("/slip", sportsbookHandler.Slip)
				r.Delete("/slip", sportsbookHandler.ClearSlip)
				r.Delete("/slip/{key}", sportsbookHandler.RemoveLine)
				r.Post("/slip/confirm", sportsbookHandler.Confirm)
				r.Get("/tickets", sportsbookHandler.Tickets)
			})

			r.Route("/ladder", func(r chi.Router) {
				r.Post("/bets", ladderHandler.PlaceBet)
				r.Get("/state", ladderHandler.State)
			})

			r.Route("/races/{variant}", func(r chi.Router) {
				r.Post("/bets", raceHandler.PlaceBet)
				r.Get("/state", raceHandler.State)
			})

			r.Get("/notifications", notificationHandler.List)
			r.Delete("/notifications/{id}", notificationHandler.Dismiss)
		})
	})

	return r
}
