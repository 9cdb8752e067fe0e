package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/horoscope-be/internal/auth"
	"github.com/hongminglow/horoscope-be/internal/completion"
	"github.com/hongminglow/horoscope-be/internal/config"
	"github.com/hongminglow/horoscope-be/internal/entitlement"
	"github.com/hongminglow/horoscope-be/internal/gate"
	"github.com/hongminglow/horoscope-be/internal/http/handlers"
	"github.com/hongminglow/horoscope-be/internal/logging"
	"github.com/hongminglow/horoscope-be/internal/profile"
	"github.com/hongminglow/horoscope-be/internal/prompt"
	"github.com/hongminglow/horoscope-be/internal/reading"
	"github.com/hongminglow/horoscope-be/internal/server"
	"github.com/hongminglow/horoscope-be/internal/session"
	"github.com/hongminglow/horoscope-be/internal/storage/backend"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx := context.Background()
	kv, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("init storage")
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logging.Error().Err(err).Msg("close storage")
		}
	}()

	if cfg.Completion.APIKey == "" {
		logging.Warn().Msg("OPENROUTER_API_KEY is not set; reading requests will fail until it is configured")
	}

	checker := entitlement.Checker{}
	profiles := profile.NewStore(kv)
	sessions := session.NewManager(profiles)
	readings := reading.NewService(
		completion.New(cfg.Completion),
		prompt.New(cfg.Completion.Model, cfg.Completion.Temperature),
		checker,
		reading.NewTracker(),
	)

	srv := server.New(cfg, server.Deps{
		Profiles: profiles,
		Sessions: sessions,
		Readings: readings,
		Gate:     gate.New(checker, cfg.UpgradeURL, handlers.SessionProfile(sessions)),
		Tokens:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.JWTTTL()),
		Identity: auth.NewIdentityClient(cfg.Auth.UserInfoURL),
	})

	go func() {
		logging.Info().
			Str("addr", cfg.HTTPAddress()).
			Str("platform", cfg.Platform).
			Str("storage", cfg.Storage.Backend).
			Bool("encrypted", cfg.Storage.Encrypt).
			Msg("horoscope backend listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("http server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sessions.CloseAll()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown error")
	}
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		logging.Info().Msg("no .env file found; relying on existing environment")
	}
}
