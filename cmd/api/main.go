// Command api runs the event listing HTTP server.
//
//	@title			Event Listing API
//	@version		1.0
//	@description	Events, participation requests and moderation.
//	@BasePath		/
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"eventlisting/config"
	"eventlisting/internal/adapters/email"
	"eventlisting/internal/adapters/stats"
	httpdelivery "eventlisting/internal/delivery/http"
	"eventlisting/internal/delivery/http/controllers"
	"eventlisting/internal/delivery/http/middleware"
	"eventlisting/internal/domain"
	"eventlisting/internal/repository/postgres"
	"eventlisting/internal/services"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := config.NewLogger(cfg)

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	logger.Info("connected to database")

	userRepo := postgres.NewUserRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	requestRepo := postgres.NewRequestRepository(db)
	admission := postgres.NewAdmissionStore(db)

	var hits domain.HitReporter
	if cfg.StatsServerURL == "" {
		logger.Warn("STATS_SERVER_URL not set, hit reporting disabled")
		hits = stats.NewNoopReporter()
	} else {
		hits = stats.NewHTTPReporter(&http.Client{Timeout: 3 * time.Second}, cfg.StatsServerURL, cfg.StatsAppName)
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("create mailer: %w", err)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	userService := services.NewUserService(userRepo, categoryRepo)
	eventService := services.NewEventService(eventRepo, userRepo, categoryRepo, admission, hits, logger, cfg.RequestTimeout)
	requestService := services.NewRequestService(requestRepo, eventRepo, userRepo, admission, emailService,
		logger, cfg.StrictRequestOwnership, cfg.RequestTimeout)

	mux := httpdelivery.NewRouter(
		controllers.NewEventController(logger, eventService),
		controllers.NewRequestController(logger, requestService),
		controllers.NewUserController(logger, userService),
	)
	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
