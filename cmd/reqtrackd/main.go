package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/mukhulaazam/large-req-handling/internal/config"
	"github.com/mukhulaazam/large-req-handling/internal/database"
	"github.com/mukhulaazam/large-req-handling/internal/observability"
	"github.com/mukhulaazam/large-req-handling/internal/server"
)

func main() {
	_ = godotenv.Load()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.RunMigrations(ctx, cfg.Database.URL()); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	nrApp, err := observability.NewApplication(cfg.Observability)
	if err != nil {
		logger.Fatal().Err(err).Msg("init observability")
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger, nrApp != nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("create database pool")
	}
	defer pool.Close()

	srv, err := server.New(cfg, pool, nrApp, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build server")
	}

	logger.Info().Str("port", cfg.Server.Port).Str("env", cfg.Primary.Env).Msg("starting server")
	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}
