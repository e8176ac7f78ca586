package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/graphconnect/graphconnect/internal/config"
	"github.com/graphconnect/graphconnect/internal/database"
	"github.com/graphconnect/graphconnect/internal/graph"
	"github.com/graphconnect/graphconnect/internal/handler"
	"github.com/graphconnect/graphconnect/internal/logger"
	"github.com/graphconnect/graphconnect/internal/middleware"
	"github.com/graphconnect/graphconnect/internal/repository"
	"github.com/graphconnect/graphconnect/internal/router"
	"github.com/graphconnect/graphconnect/internal/service"
	"github.com/graphconnect/graphconnect/internal/validation"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("version", handler.Version).Msg("starting GraphConnect server")

	ctx := context.Background()

	// PostgreSQL backs the mail audit trail
	var db *database.Postgres
	var audit service.AuditStore
	if cfg.Audit.Enabled {
		db, err = database.NewPostgres(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
		audit = repository.NewMailAuditRepository(db)
		log.Info().Msg("connected to PostgreSQL")
	}

	// Redis backs rate limiting
	var rdb *database.Redis
	if cfg.RateLimiting.Enabled {
		rdb, err = database.NewRedis(cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("connected to Redis")
	}

	// Application mailer, used when callers do not forward a token
	var app service.Mailer
	var appMailbox string
	if cfg.Graph.Configured() {
		ctrl, err := graph.NewControllerFromConfig(ctx, cfg.Graph, log.WithComponent("graph"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Graph controller")
		}
		app = ctrl
		appMailbox = graph.MailboxFor(cfg.Graph.SenderAddress)
		log.Info().
			Str("auth_mode", cfg.Graph.AuthMode).
			Str("mailbox", appMailbox).
			Msg("Graph controller initialized")
		if cfg.Mail.APIKey == "" {
			log.Warn().Msg("mail.api_key is empty, app-mode sends over HTTP are disabled")
		}
	} else {
		log.Warn().Msg("no Graph credentials configured, only delegated sends are available")
	}

	v, err := validation.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize validator")
	}

	mailSvc := service.NewMailService(app, appMailbox, service.GraphMailerFactory(cfg.Graph, log.WithComponent("graph")), audit, v, log)

	h := handler.New(db, rdb, log, cfg, mailSvc)
	mw := middleware.New(rdb, log, cfg)

	r := router.New(h, mw, middleware.RateLimitConfig{
		Name:   "mail_send",
		Limit:  cfg.RateLimiting.Limit,
		Window: cfg.RateLimiting.Window,
		KeyFn:  middleware.IPKey,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Graph.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
