package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aquasys/aquasys-core/internal/bus"
	"github.com/aquasys/aquasys-core/internal/eventlog"
	"github.com/aquasys/aquasys-core/internal/infrastructure/logging"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE readings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			air_temp REAL NOT NULL,
			humidity REAL NOT NULL,
			ph REAL NOT NULL,
			water_temp REAL NOT NULL,
			ec REAL NOT NULL
		);
		CREATE TABLE relay_status (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			relay1_led INTEGER NOT NULL,
			relay2_pump INTEGER NOT NULL,
			relay3_ph_up INTEGER NOT NULL DEFAULT 0,
			relay4_fan INTEGER NOT NULL DEFAULT 0,
			relay5_humidity INTEGER NOT NULL DEFAULT 0,
			relay6_ec INTEGER NOT NULL DEFAULT 0,
			relay7_co2 INTEGER NOT NULL DEFAULT 0,
			relay8_generic INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE event_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_type TEXT NOT NULL,
			message TEXT NOT NULL,
			timestamp TEXT NOT NULL
		);
	`)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return db
}

func setupGateway(t *testing.T) (*Gateway, *sql.DB, *bus.Bus) {
	t.Helper()

	db := setupTestDB(t)
	eventBus := bus.New()
	t.Cleanup(eventBus.Close)

	gateway := NewGateway(
		NewSQLiteReadingRepository(db),
		NewSQLiteRelayStatusRepository(db),
		eventlog.NewSQLiteRepository(db),
		eventBus,
		logging.Default(),
	)
	return gateway, db, eventBus
}

func validSensorData() SensorData {
	return SensorData{
		AirTemp:   24.5,
		Humidity:  61.2,
		PH:        6.1,
		WaterTemp: 21.8,
		EC:        840,
	}
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		t.Fatalf("counting %s rows: %v", table, err)
	}
	return count
}

func TestProcessSensors_Valid(t *testing.T) {
	gateway, db, eventBus := setupGateway(t)
	ctx := context.Background()

	events, cancel := eventBus.Subscribe(bus.ChannelReadingInserted)
	defer cancel()

	reading, err := gateway.ProcessSensors(ctx, validSensorData())
	if err != nil {
		t.Fatalf("ProcessSensors() error = %v", err)
	}

	// Exactly one reading row and one reading_received event.
	if got := countRows(t, db, "readings"); got != 1 {
		t.Errorf("readings rows = %d, want 1", got)
	}
	var eventType, message string
	err = db.QueryRow("SELECT event_type, message FROM event_logs").Scan(&eventType, &message)
	if err != nil {
		t.Fatalf("querying event log: %v", err)
	}
	if eventType != eventlog.TypeReadingReceived {
		t.Errorf("event_type = %q, want %q", eventType, eventlog.TypeReadingReceived)
	}
	if !strings.Contains(message, "6.10") && !strings.Contains(message, "6.1") {
		t.Errorf("event message missing pH value: %q", message)
	}

	if reading.ID == 0 || reading.Timestamp.IsZero() {
		t.Errorf("reading not fully populated: %+v", reading)
	}

	// Change notification published on the bus.
	select {
	case event := <-events:
		if event.Channel != bus.ChannelReadingInserted {
			t.Errorf("bus channel = %q, want %q", event.Channel, bus.ChannelReadingInserted)
		}
	default:
		t.Error("no bus event published for stored reading")
	}
}

func TestProcessSensors_MissingField(t *testing.T) {
	gateway, db, _ := setupGateway(t)
	ctx := context.Background()

	data := validSensorData()
	data.Humidity = 0 // decoded absence

	_, err := gateway.ProcessSensors(ctx, data)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ProcessSensors() error = %v, want ErrValidation", err)
	}

	if got := countRows(t, db, "readings"); got != 0 {
		t.Errorf("readings rows = %d, want 0", got)
	}

	var eventType string
	if err := db.QueryRow("SELECT event_type FROM event_logs").Scan(&eventType); err != nil {
		t.Fatalf("querying event log: %v", err)
	}
	if eventType != eventlog.TypeValidationError {
		t.Errorf("event_type = %q, want %q", eventType, eventlog.TypeValidationError)
	}
}

func TestProcessSensors_ZeroPHRejected(t *testing.T) {
	// A legitimate pH of exactly 0 is indistinguishable from a missing
	// field and is rejected. This locks the behaviour in; see the
	// package doc for why it is kept.
	gateway, db, _ := setupGateway(t)

	data := validSensorData()
	data.PH = 0

	_, err := gateway.ProcessSensors(context.Background(), data)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ProcessSensors() error = %v, want ErrValidation", err)
	}
	if got := countRows(t, db, "readings"); got != 0 {
		t.Errorf("readings rows = %d, want 0 (zero pH must be rejected)", got)
	}
}

func TestProcessRelayStatus_Valid(t *testing.T) {
	gateway, db, eventBus := setupGateway(t)

	events, cancel := eventBus.Subscribe(bus.ChannelRelayStatusInserted)
	defer cancel()

	status, err := gateway.ProcessRelayStatus(context.Background(), RelayStatusData{
		Relay1Led:  true,
		Relay2Pump: false,
		Relay4Fan:  true,
		HasRelay1:  true,
		HasRelay2:  true,
	})
	if err != nil {
		t.Fatalf("ProcessRelayStatus() error = %v", err)
	}

	if got := countRows(t, db, "relay_status"); got != 1 {
		t.Errorf("relay_status rows = %d, want 1", got)
	}
	if !status.Relay1Led || status.Relay2Pump || !status.Relay4Fan {
		t.Errorf("stored status = %+v, want relay1 on, relay2 off, relay4 on", status)
	}

	select {
	case <-events:
	default:
		t.Error("no bus event published for stored relay status")
	}
}

func TestProcessRelayStatus_MissingRequiredFields(t *testing.T) {
	gateway, db, _ := setupGateway(t)

	_, err := gateway.ProcessRelayStatus(context.Background(), RelayStatusData{
		Relay1Led: true,
		HasRelay1: true,
		HasRelay2: false,
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ProcessRelayStatus() error = %v, want ErrValidation", err)
	}
	if got := countRows(t, db, "relay_status"); got != 0 {
		t.Errorf("relay_status rows = %d, want 0", got)
	}
}

func TestProcessSensors_StorageFailure(t *testing.T) {
	gateway, db, _ := setupGateway(t)

	// Force the insert to fail.
	if _, err := db.Exec("DROP TABLE readings"); err != nil {
		t.Fatalf("dropping table: %v", err)
	}

	_, err := gateway.ProcessSensors(context.Background(), validSensorData())
	if err == nil {
		t.Fatal("ProcessSensors() expected error after storage failure")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("storage failure must not be reported as validation error")
	}

	var eventType string
	if err := db.QueryRow("SELECT event_type FROM event_logs").Scan(&eventType); err != nil {
		t.Fatalf("querying event log: %v", err)
	}
	if eventType != eventlog.TypeDatabaseError {
		t.Errorf("event_type = %q, want %q", eventType, eventlog.TypeDatabaseError)
	}
}
