// Command server runs the entries HTTP API.
//
// @title       Entries API
// @version     1.0
// @description Submit, list and delete personal entries; submissions are rate limited per client address.
// @BasePath    /
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

	_ "github.com/tbourn/go-entries-backend/docs"
	"github.com/tbourn/go-entries-backend/internal/config"
	httpapi "github.com/tbourn/go-entries-backend/internal/http"
	"github.com/tbourn/go-entries-backend/internal/observability"
	"github.com/tbourn/go-entries-backend/internal/repo"
	"github.com/tbourn/go-entries-backend/internal/sysutil"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is fine; real environments inject variables directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	lvl := sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.Open(cfg.DB.Driver, cfg.DB.DSN())
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open database")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Fatal().Err(err).Msg("enable gorm tracing")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	r := gin.New()
	if err := httpapi.RegisterRoutes(r, db, cfg); err != nil {
		log.Fatal().Err(err).Msg("register routes")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("driver", cfg.DB.Driver).
			Str("version", version).
			Stringer("log_level", lvl).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	if err := repo.Close(db); err != nil {
		log.Error().Err(err).Msg("close database")
	}
	log.Info().Msg("stopped")
}
