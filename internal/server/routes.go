// Package server wires HTTP handlers into a chi router for the relay.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes returns the HTTP handler for the WebSocket endpoint, health
// check, metrics and, when cfg.StaticDir is set, the static client files.
func SetupRoutes(hub *Hub) http.Handler {
	cfg := hub.cfg
	r := chi.NewRouter()

	r.Use(Metrics)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(RequestLogger(hub.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	upgrader := newUpgrader(newOriginPolicy(cfg.AllowedOrigins, hub.logger))

	r.Get("/ws", WebSocketHandler(hub, upgrader))
	r.Get("/health", HealthHandler(hub))
	r.Get("/test", TestPageHandler)
	r.Handle("/metrics", promhttp.Handler())

	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	} else {
		r.Get("/", HealthHandler(hub))
	}

	return r
}
