// Package api provides the HTTP REST API and WebSocket server for AquaSys Core.
//
// It exposes telemetry queries, relay control, event log access, and AI
// insight operations to the dashboard, and relays bus events to WebSocket
// clients in real time.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aquasys/aquasys-core/internal/bus"
	"github.com/aquasys/aquasys-core/internal/eventlog"
	"github.com/aquasys/aquasys-core/internal/infrastructure/config"
	"github.com/aquasys/aquasys-core/internal/infrastructure/database"
	"github.com/aquasys/aquasys-core/internal/infrastructure/logging"
	"github.com/aquasys/aquasys-core/internal/infrastructure/mqtt"
	"github.com/aquasys/aquasys-core/internal/insights"
	"github.com/aquasys/aquasys-core/internal/relay"
	"github.com/aquasys/aquasys-core/internal/telemetry"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Logger     *logging.Logger
	Bus        *bus.Bus
	Readings   telemetry.ReadingRepository
	Statuses   telemetry.RelayStatusRepository
	Dispatcher *relay.Dispatcher
	Events     eventlog.Repository
	Analyzer   *insights.Analyzer // optional: nil disables insight endpoints
	MQTT       *mqtt.Client       // optional: health reporting only
	DB         *database.DB       // optional: health reporting only
	Version    string
}

// Server is the HTTP API server for AquaSys Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	logger     *logging.Logger
	bus        *bus.Bus
	readings   telemetry.ReadingRepository
	statuses   telemetry.RelayStatusRepository
	dispatcher *relay.Dispatcher
	events     eventlog.Repository
	analyzer   *insights.Analyzer
	mqtt       *mqtt.Client
	db         *database.DB
	version    string

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Bus == nil {
		return nil, fmt.Errorf("event bus is required")
	}
	if deps.Readings == nil || deps.Statuses == nil {
		return nil, fmt.Errorf("telemetry repositories are required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("relay dispatcher is required")
	}
	if deps.Events == nil {
		return nil, fmt.Errorf("event log repository is required")
	}

	return &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		logger:     deps.Logger,
		bus:        deps.Bus,
		readings:   deps.Readings,
		statuses:   deps.Statuses,
		dispatcher: deps.Dispatcher,
		events:     deps.Events,
		analyzer:   deps.Analyzer,
		mqtt:       deps.MQTT,
		db:         deps.DB,
		version:    deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, wires the hub to the
// event bus, and launches the HTTP listener in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)
	go s.relayBusEvents(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
