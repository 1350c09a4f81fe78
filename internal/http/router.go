package http

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"networkbrain/internal/auth"
	"networkbrain/internal/calendar"
	"networkbrain/internal/config"
	"networkbrain/internal/importer"
	"networkbrain/internal/intros"
	"networkbrain/internal/mail"
	"networkbrain/internal/metrics"
	"networkbrain/internal/profiles"
)

// Services bundles the application services the router exposes.
type Services struct {
	Auth     *auth.Service
	Profiles *profiles.Service
	Intros   *intros.Service
	Calendar *calendar.Service
	Mail     *mail.Service
	Importer *importer.CSVImporter
	Metrics  *metrics.Metrics
}

// NewRouter wires application routes and middleware using chi.
func NewRouter(cfg config.Config, svcs Services, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	if svcs.Metrics != nil {
		r.Use(svcs.Metrics.Middleware)
	}
	r.Use(newSecurityHeadersMiddleware(cfg.Environment))
	r.Use(newSlogMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"environment": cfg.Environment,
		})
	})
	if svcs.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", svcs.Metrics.Handler())
	}

	authHandler := NewAuthHandler(svcs.Auth, cfg.BaseURL, cfg.Environment, logger)
	profileHandler := NewProfileHandler(svcs.Profiles, svcs.Importer, logger)
	introHandler := NewIntroHandler(svcs.Intros, logger)
	calendarHandler := NewCalendarHandler(svcs.Calendar, logger)
	gmailHandler := NewGmailHandler(svcs.Mail, logger)

	if len(cfg.AdminEmails) == 0 {
		logger.Warn("ADMIN_EMAILS is empty; every login will be rejected")
	}

	// Middleware stacks are attached per mounted route so CORS preflights
	// reach the right policy.
	sessionMW := newSessionMiddleware(svcs.Auth, logger)
	appCORSMW := appCORS(cfg.AllowedOrigins)

	r.Route("/api", func(r chi.Router) {
		// Browser OAuth flow; no session required for login and callback.
		r.Route("/auth/google", func(r chi.Router) {
			r.Get("/login", authHandler.Login)
			r.Get("/callback", authHandler.Callback)

			r.Group(func(r chi.Router) {
				r.Use(sessionMW)
				r.Get("/status", authHandler.Status)
				r.Post("/revoke", authHandler.Revoke)
			})
		})

		// Extension token exchange: exact-origin CORS and rate limited.
		r.Route("/auth/token-exchange", func(r chi.Router) {
			r.Use(extensionCORS(cfg.ExtensionOrigins))
			r.Use(newRateLimitMiddleware(5, 10))
			r.Post("/", authHandler.TokenExchange)
		})

		// Everything below requires a verified admin session.
		r.Route("/profiles", func(r chi.Router) {
			r.Use(appCORSMW, sessionMW)
			r.Get("/", profileHandler.List)
			r.Post("/", profileHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", profileHandler.Get)
				r.Put("/", profileHandler.Update)
				r.Delete("/", profileHandler.Delete)
			})
		})

		r.Route("/import", func(r chi.Router) {
			r.Use(appCORSMW, sessionMW)
			r.Post("/", profileHandler.ImportCSV)
		})

		r.Route("/intros", func(r chi.Router) {
			r.Use(appCORSMW, sessionMW)
			r.Get("/", introHandler.List)
			r.Post("/", introHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", introHandler.Get)
				r.Put("/", introHandler.Update)
				r.Delete("/", introHandler.Delete)
				r.Post("/status", introHandler.Transition)
			})
		})

		r.Route("/calendar", func(r chi.Router) {
			r.Use(appCORSMW, sessionMW)
			r.Get("/events", calendarHandler.Events)
			r.Post("/sync", calendarHandler.Sync)
		})

		r.Route("/gmail", func(r chi.Router) {
			r.Use(appCORSMW, sessionMW)
			r.Post("/send", gmailHandler.Send)
			r.Get("/history", gmailHandler.History)
		})
	})

	r.NotFound(http.NotFoundHandler().ServeHTTP)

	return r
}
