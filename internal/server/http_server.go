// Package server constructs and starts the relay HTTP service with helpers
// that apply sensible production defaults.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// CreateServer creates and configures an HTTP server with the specified address and handler.
// It sets reasonable timeout values for production use.
func CreateServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// StartHub starts the hub loop in a separate goroutine. Call it before
// starting the HTTP server.
func StartHub(hub *Hub) {
	go hub.Run()
	hub.logger.Info().Msg("hub started and ready to manage WebSocket connections")
}

// StartServer starts the HTTP server and blocks until it stops.
func StartServer(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Str("addr", server.Addr).Msg("server listening")
	return server.ListenAndServe()
}

// ShutdownServer gracefully shuts down the HTTP server, waiting for active
// requests until ctx expires. Hijacked WebSocket connections are closed by the hub.
func ShutdownServer(ctx context.Context, server *http.Server, logger zerolog.Logger) error {
	logger.Info().Msg("shutting down HTTP server")

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
		return err
	}

	logger.Info().Msg("HTTP server shutdown completed")
	return nil
}
