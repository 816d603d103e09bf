package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Telemetry
		r.Route("/readings", func(r chi.Router) {
			r.Get("/", s.handleListReadings)
			r.Get("/latest", s.handleLatestReading)
			r.Get("/export", s.handleExportReadings)
		})

		// Relay control
		r.Route("/relays", func(r chi.Router) {
			r.Post("/ping", s.handlePing)
			r.Get("/status", s.handleRelayStatus)
			r.Get("/configs", s.handleListConfigs)

			r.Route("/commands", func(r chi.Router) {
				r.Get("/", s.handleListCommands)
				r.Post("/{id}/executed", s.handleMarkExecuted)
			})

			r.Route("/{index}", func(r chi.Router) {
				r.Post("/command", s.handleRelayCommand)
				r.Get("/config", s.handleGetConfig)
				r.Put("/config", s.handlePutConfig)
			})
		})

		// Event log
		r.Get("/events", s.handleListEvents)

		// AI insights
		r.Route("/insights", func(r chi.Router) {
			r.Get("/", s.handleListInsights)
			r.Post("/analyze", s.handleAnalyze)
		})

		// WebSocket
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// healthCheckTimeout bounds the database probe inside the health handler.
const healthCheckTimeout = 2 * time.Second

// handleHealth returns the server health status with per-component detail.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]any{}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := s.db.HealthCheck(ctx); err != nil {
			components["database"] = "error: " + err.Error()
		} else {
			components["database"] = "ok"
		}
	}

	if s.mqtt != nil {
		components["mqtt"] = s.mqtt.State().String()
	}

	if s.hub != nil {
		components["websocket_clients"] = s.hub.ClientCount()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"components": components,
	})
}
