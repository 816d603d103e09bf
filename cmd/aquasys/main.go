// AquaSys Core - Hydroponics Monitoring and Control
//
// This is the main entry point for the AquaSys Core application. It
// ingests sensor telemetry and relay status over MQTT, persists them in
// SQLite, exposes a REST/WebSocket API for the dashboard, mirrors
// telemetry into InfluxDB, and runs AI analysis of recent readings.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/aquasys/aquasys-core/migrations"

	"github.com/aquasys/aquasys-core/internal/api"
	"github.com/aquasys/aquasys-core/internal/bus"
	"github.com/aquasys/aquasys-core/internal/eventlog"
	"github.com/aquasys/aquasys-core/internal/infrastructure/config"
	"github.com/aquasys/aquasys-core/internal/infrastructure/database"
	"github.com/aquasys/aquasys-core/internal/infrastructure/influxdb"
	"github.com/aquasys/aquasys-core/internal/infrastructure/logging"
	"github.com/aquasys/aquasys-core/internal/infrastructure/mqtt"
	"github.com/aquasys/aquasys-core/internal/insights"
	"github.com/aquasys/aquasys-core/internal/relay"
	"github.com/aquasys/aquasys-core/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error { //nolint:gocognit,cyclop // linear startup sequence
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting AquaSys Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// In-process event bus: storage writes fan out to WebSocket clients
	eventBus := bus.New()
	defer eventBus.Close()

	// Repositories
	readings := telemetry.NewSQLiteReadingRepository(db.DB)
	statuses := telemetry.NewSQLiteRelayStatusRepository(db.DB)
	events := eventlog.NewSQLiteRepository(db.DB)
	commands := relay.NewSQLiteCommandRepository(db.DB)
	configs := relay.NewSQLiteConfigRepository(db.DB)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnStateChange(func(from, to mqtt.ConnState) {
		log.Info("MQTT state changed", "from", from.String(), "to", to.String())
		eventBus.Publish(bus.ChannelMQTTStateChanged, map[string]string{
			"from": from.String(),
			"to":   to.String(),
		})
	})

	// Connect to InfluxDB (optional telemetry mirror)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Ingest pipeline: MQTT -> router -> gateway -> SQLite (+ mirror)
	gateway := telemetry.NewGateway(readings, statuses, events, eventBus, log)
	if influxClient != nil {
		gateway.SetMirror(influxClient)
	}
	router := telemetry.NewRouter(gateway, log)

	qos := byte(cfg.MQTT.QoS) //nolint:gosec // validated 0..2 by config
	topics := mqtt.Topics{}
	for _, topic := range []string{topics.SensorsAll(), topics.RelayStatus()} {
		if subErr := mqttClient.Subscribe(topic, qos, router.Route); subErr != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, subErr)
		}
		log.Info("subscribed to telemetry topic", "topic", topic)
	}

	// Relay control
	dispatcher := relay.NewDispatcher(commands, configs, events, eventBus, mqttClient, qos, log)

	// AI insights (optional)
	var analyzer *insights.Analyzer
	if cfg.Insights.Enabled {
		analyzer = insights.NewAnalyzer(
			readings,
			insights.NewSQLiteRepository(db.DB),
			events,
			eventBus,
			insights.NewGateway(cfg.Insights),
			log,
		)
		log.Info("AI insights enabled", "model", cfg.Insights.Model)
	} else {
		log.Info("AI insights disabled")
	}

	// HTTP API + WebSocket
	server, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Logger:     log,
		Bus:        eventBus,
		Readings:   readings,
		Statuses:   statuses,
		Dispatcher: dispatcher,
		Events:     events,
		Analyzer:   analyzer,
		MQTT:       mqttClient,
		DB:         db,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT
	// 4. Event bus
	// 5. Database

	log.Info("AquaSys Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses AQUASYS_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("AQUASYS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
