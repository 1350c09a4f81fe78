package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"networkbrain/internal/auth"
	"networkbrain/internal/calendar"
	"networkbrain/internal/config"
	"networkbrain/internal/gapi"
	transporthttp "networkbrain/internal/http"
	"networkbrain/internal/importer"
	"networkbrain/internal/intros"
	"networkbrain/internal/mail"
	"networkbrain/internal/metrics"
	"networkbrain/internal/platform/database"
	"networkbrain/internal/platform/logging"
	"networkbrain/internal/platform/migrate"
	"networkbrain/internal/profiles"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel)

	repos, cleanup, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	sessions, err := auth.NewSessionIssuer(cfg.SessionSecret)
	if err != nil {
		logger.Error("failed to initialize session issuer", "error", err)
		os.Exit(1)
	}

	var authenticator auth.Authenticator
	var factory *gapi.ClientFactory
	if cfg.GoogleConfigured() {
		google, err := auth.NewGoogleAuthenticator(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)
		if err != nil {
			logger.Error("failed to initialize Google client", "error", err)
			os.Exit(1)
		}
		authenticator = google
		factory = gapi.NewClientFactory(google.OAuthConfig(), repos.credentials, cfg.OversightBCC, cfg.CalendarMaxResults, logger)
	} else {
		logger.Warn("Google client not configured; auth and delegated endpoints will report a configuration error")
	}

	allowlist := auth.NewAllowlist(cfg.AdminEmails)
	authSvc := auth.NewService(authenticator, repos.credentials, sessions, allowlist, logger)
	profileSvc := profiles.NewService(repos.profiles)
	introSvc := intros.NewService(repos.intros, profileSvc)

	var calendarSvc *calendar.Service
	var mailSvc *mail.Service
	if factory != nil {
		calendarSvc = calendar.NewService(factory, repos.events, profileSvc, logger)
		mailSvc = mail.NewService(factory, repos.emailLogs, profileSvc, logger)
	}

	router := transporthttp.NewRouter(cfg, transporthttp.Services{
		Auth:     authSvc,
		Profiles: profileSvc,
		Intros:   introSvc,
		Calendar: calendarSvc,
		Mail:     mailSvc,
		Importer: importer.NewCSVImporter(profileSvc),
		Metrics:  metrics.New(),
	}, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("Network Brain API listening", "addr", srv.Addr, "store", cfg.DataStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

type repositories struct {
	credentials auth.CredentialStore
	profiles    profiles.Repository
	intros      intros.Repository
	events      calendar.Repository
	emailLogs   mail.Repository
}

func buildRepositories(ctx context.Context, cfg config.Config, logger *slog.Logger) (repositories, func(), error) {
	if cfg.UseInMemoryStore() {
		logger.Info("using in-memory repositories")
		return repositories{
			credentials: auth.NewInMemoryStore(),
			profiles:    profiles.NewInMemoryRepository(nil),
			intros:      intros.NewInMemoryRepository(),
			events:      calendar.NewInMemoryRepository(),
			emailLogs:   mail.NewInMemoryRepository(),
		}, nil, nil
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return repositories{}, nil, err
	}

	cleanup := func() {
		_ = db.Close()
	}

	if err := migrate.Apply(ctx, db, logger); err != nil {
		cleanup()
		return repositories{}, nil, err
	}

	logger.Info("connected to postgres")
	return repositories{
		credentials: auth.NewPostgresStore(db),
		profiles:    profiles.NewPostgresRepository(db),
		intros:      intros.NewPostgresRepository(db),
		events:      calendar.NewPostgresRepository(db),
		emailLogs:   mail.NewPostgresRepository(db),
	}, cleanup, nil
}
