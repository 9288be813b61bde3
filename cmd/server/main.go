package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Tyrowin/gochat-relay/internal/server"
)

func main() {
	cfg := server.NewConfigFromEnv()
	logger := newLogger(cfg)

	logger.Info().
		Str("addr", cfg.Port).
		Str("env", cfg.Env).
		Int("history_capacity", cfg.HistoryCapacity).
		Msg("starting relay server")

	hub := server.NewHub(*cfg, logger)
	server.StartHub(hub)

	httpServer := server.CreateServer(cfg.Port, server.SetupRoutes(hub))

	go func() {
		if err := server.StartServer(httpServer, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			return server.ShutdownServer(ctx, httpServer, logger)
		},
		"hub": func(ctx context.Context) error {
			return hub.Shutdown(ctx)
		},
	})
	exitCode := <-wait
	logger.Info().Int("exit_code", exitCode).Msg("server stopped")
	os.Exit(exitCode)
}

func newLogger(cfg *server.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return log.Logger.With().Timestamp().Logger()
}
