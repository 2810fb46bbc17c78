// Command server runs the kakaku-backend HTTP API: price entry submission
// and search, store registration, thanks, and receipt import tracking over a
// SQLite database.
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

	"github.com/kakakulog/kakaku-backend/internal/ai"
	"github.com/kakakulog/kakaku-backend/internal/config"
	httpapi "github.com/kakakulog/kakaku-backend/internal/http"
	"github.com/kakakulog/kakaku-backend/internal/observability"
	"github.com/kakakulog/kakaku-backend/internal/repo"
	"github.com/kakakulog/kakaku-backend/internal/storage"
	"github.com/kakakulog/kakaku-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("could not open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Warn().Err(err).Msg("db tracing unavailable")
		}
	}

	images := buildImageStore(ctx, cfg)

	var aiClient *ai.Client
	if cfg.AIConfigured() {
		aiClient = ai.NewClient(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
	} else {
		log.Info().Msg("no AI key configured; receipt analysis runs client-side only")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, images, aiClient, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("version", version).
			Str("port", cfg.Port).
			Str("env", cfg.AppEnv).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// buildImageStore prefers S3 when a bucket is configured and falls back to a
// local directory, or to no storage at all when even that fails.
func buildImageStore(ctx context.Context, cfg config.Config) storage.Store {
	if cfg.Storage.Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.Storage.Bucket,
			Region:          cfg.Storage.Region,
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			URLTTL:          cfg.Storage.URLTTL,
		})
		if err == nil {
			log.Info().Str("bucket", cfg.Storage.Bucket).Msg("receipt images stored in S3")
			return s3Store
		}
		log.Error().Err(err).Msg("s3 storage unavailable, falling back to local directory")
	}

	local, err := storage.NewLocalStore(cfg.Storage.LocalDir)
	if err != nil {
		log.Error().Err(err).Str("dir", cfg.Storage.LocalDir).Msg("local image storage unavailable")
		return nil
	}
	return local
}
