// Command server runs the image studio HTTP API.
//
// @title        Image Studio API
// @version      1.0
// @description  Account, session and image generation endpoints of the image studio.
// @BasePath     /api/v1
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
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-image-studio/internal/config"
	"github.com/tbourn/go-image-studio/internal/genai"
	httpapi "github.com/tbourn/go-image-studio/internal/http"
	"github.com/tbourn/go-image-studio/internal/observability"
	"github.com/tbourn/go-image-studio/internal/repo"
	"github.com/tbourn/go-image-studio/internal/studio"
	"github.com/tbourn/go-image-studio/internal/sysutil"
)

var version = "dev"

// janitorEvery is how often expired replays and idle states are dropped.
const janitorEvery = 10 * time.Minute

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	sysutil.ConfigureLogger(cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open db")
	}
	if err := observability.InstrumentDB(db); err != nil {
		log.Warn().Err(err).Msg("db tracing disabled")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	ai := genai.New(genai.Config{
		BaseURL:           cfg.GenAI.BaseURL,
		PromptModel:       cfg.GenAI.PromptModel,
		PromptTemperature: cfg.GenAI.PromptTemperature,
		ImageModel:        cfg.GenAI.ImageModel,
		ImageSize:         cfg.GenAI.ImageSize,
		ImageQuality:      cfg.GenAI.ImageQuality,
		ImageStyle:        cfg.GenAI.ImageStyle,
	}, &http.Client{})

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	ctrl, err := httpapi.RegisterRoutes(r, db, ai, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("routes")
	}

	go janitor(ctx, db, ctrl.States)

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
		log.Info().Str("addr", srv.Addr).Str("version", ver).Msg("starting image studio")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shutCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("stopped")
}

// janitor purges expired generation replays and idle session states until
// ctx is cancelled.
func janitor(ctx context.Context, db *gorm.DB, states *studio.StateStore) {
	t := time.NewTicker(janitorEvery)
	defer t.Stop()
	for {
		n, err := repo.PurgeExpiredReplays(ctx, db, time.Now().UTC())
		if err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("purge replays")
		}
		swept := states.Sweep()
		if n > 0 || swept > 0 {
			log.Debug().Int64("replays", n).Int("states", swept).Msg("janitor")
		}

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
