package server

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	nrecho "github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/mukhulaazam/large-req-handling/internal/config"
	"github.com/mukhulaazam/large-req-handling/internal/handler"
	"github.com/mukhulaazam/large-req-handling/internal/middleware"
	"github.com/mukhulaazam/large-req-handling/internal/model"
	"github.com/mukhulaazam/large-req-handling/internal/repository"
)

// Server holds the Echo app and its dependencies.
type Server struct {
	Echo      *echo.Echo
	Config    *config.Config
	closeSink func() error
}

// New builds the Echo server with the tracking middleware mounted on the
// /api group. Caller must provide a non-nil pool; nrApp may be nil.
func New(cfg *config.Config, pool *pgxpool.Pool, nrApp *newrelic.Application, logger zerolog.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: cfg.Server.CORSAllowedOrigins,
		}))
	}
	if nrApp != nil {
		e.Use(nrecho.Middleware(nrApp))
	}

	store, closeSink, err := newSink(cfg, pool)
	if err != nil {
		return nil, err
	}

	users := repository.NewUserRepository(pool)
	lookup := func(ctx context.Context, apiKey string) (model.Identity, bool, error) {
		u, err := users.GetByAPIKey(ctx, apiKey)
		if err != nil {
			return model.Identity{}, false, err
		}
		if u == nil {
			return model.Identity{}, false, nil
		}
		return u.Identity(), true, nil
	}

	h := &handler.API{}
	api := e.Group("/api",
		middleware.Identity(lookup),
		middleware.RequestLogger(middleware.Config{
			Store:          store,
			FlushThreshold: cfg.Tracking.FlushThreshold,
			MaxBodyBytes:   cfg.Tracking.MaxBodyBytes,
		}),
	)
	api.GET("/user", h.CurrentUser)
	api.POST("/echo", h.Echo)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	logger.Info().
		Str("sink", cfg.Tracking.Sink).
		Int("flush_threshold", cfg.Tracking.FlushThreshold).
		Msg("request tracking enabled")

	return &Server{Echo: e, Config: cfg, closeSink: closeSink}, nil
}

// Start runs the HTTP server until the context is cancelled or the
// server fails. On cancel, Shutdown is called so the sink is released.
func (s *Server) Start(ctx context.Context) error {
	srv := s.Echo.Server
	srv.ReadTimeout = time.Duration(s.Config.Server.ReadTimeout) * time.Second
	srv.WriteTimeout = time.Duration(s.Config.Server.WriteTimeout) * time.Second
	srv.IdleTimeout = time.Duration(s.Config.Server.IdleTimeout) * time.Second

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()
	return s.Echo.Start(":" + s.Config.Server.Port)
}

// Shutdown gracefully stops the server and closes the sink.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.closeSink != nil {
		_ = s.closeSink()
	}
	return s.Echo.Shutdown(ctx)
}
