// Command server runs the tour booking application: it loads configuration,
// opens and migrates the database, wires the HTTP engine, and supervises the
// process lifecycle. SIGINT/SIGTERM drain in-flight requests before the
// database is closed and the process exits 0; bootstrap failures exit 1.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/trailhead-app/go-tours-backend/internal/config"
	httpapi "github.com/trailhead-app/go-tours-backend/internal/http"
	"github.com/trailhead-app/go-tours-backend/internal/http/handlers"
	"github.com/trailhead-app/go-tours-backend/internal/observability"
	"github.com/trailhead-app/go-tours-backend/internal/payments"
	"github.com/trailhead-app/go-tours-backend/internal/repo"
	"github.com/trailhead-app/go-tours-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// shutdownGrace bounds how long in-flight requests may take to drain.
const shutdownGrace = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// Local development reads .env; absence is fine in production.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 1
	}

	// Logging: level from config, pretty console output in development.
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty || cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Error().Err(err).Msg("otel setup failed")
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.Open(cfg.Database)
	if err != nil {
		log.Error().Err(err).Str("dsn", cfg.DatabaseRedacted).Msg("database open failed")
		return 1
	}
	defer func() {
		if err := repo.Close(db); err != nil {
			log.Warn().Err(err).Msg("database close")
		}
	}()

	if err := repo.AutoMigrate(db); err != nil {
		log.Error().Err(err).Msg("database migration failed")
		return 1
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.LoadHTMLGlob(cfg.TemplateDir + "/*.html")

	var verifier handlers.WebhookVerifier
	if cfg.Stripe.SecretKey != "" {
		verifier = payments.NewStripeClient(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY not set; checkout and webhook disabled")
	}

	httpapi.RegisterRoutes(engine, db, verifier, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Str("version", version).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, draining")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			return 1
		}
		return 0
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return 1
	}
	log.Info().Msg("server stopped")
	return 0
}
