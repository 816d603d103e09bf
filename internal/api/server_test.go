package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aquasys/aquasys-core/internal/bus"
	"github.com/aquasys/aquasys-core/internal/eventlog"
	"github.com/aquasys/aquasys-core/internal/infrastructure/config"
	"github.com/aquasys/aquasys-core/internal/infrastructure/logging"
	"github.com/aquasys/aquasys-core/internal/relay"
	"github.com/aquasys/aquasys-core/internal/telemetry"
)

// setupTestDB creates an in-memory SQLite database with the full schema.
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
			relay1_led INTEGER NOT NULL DEFAULT 0,
			relay2_pump INTEGER NOT NULL DEFAULT 0,
			relay3_ph_up INTEGER NOT NULL DEFAULT 0,
			relay4_fan INTEGER NOT NULL DEFAULT 0,
			relay5_humidity INTEGER NOT NULL DEFAULT 0,
			relay6_ec INTEGER NOT NULL DEFAULT 0,
			relay7_co2 INTEGER NOT NULL DEFAULT 0,
			relay8_generic INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE relay_commands (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			relay_index INTEGER NOT NULL,
			command INTEGER NOT NULL,
			executed INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);
		CREATE TABLE relay_configs (
			relay_index INTEGER PRIMARY KEY,
			mode TEXT NOT NULL DEFAULT 'unused',
			name TEXT NOT NULL DEFAULT '',
			led_on_hour INTEGER NOT NULL DEFAULT 6,
			led_off_hour INTEGER NOT NULL DEFAULT 22,
			cycle_on_min INTEGER NOT NULL DEFAULT 15,
			cycle_off_min INTEGER NOT NULL DEFAULT 45,
			ph_threshold_low REAL NOT NULL DEFAULT 5.8,
			ph_threshold_high REAL NOT NULL DEFAULT 6.5,
			ph_pulse_sec INTEGER NOT NULL DEFAULT 2,
			temp_threshold_on REAL NOT NULL DEFAULT 28,
			temp_threshold_off REAL NOT NULL DEFAULT 24,
			humidity_threshold_on REAL NOT NULL DEFAULT 70,
			humidity_threshold_off REAL NOT NULL DEFAULT 50,
			ec_threshold REAL NOT NULL DEFAULT 800,
			ec_pulse_sec INTEGER NOT NULL DEFAULT 3,
			updated_at TEXT NOT NULL
		);
		CREATE TABLE event_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_type TEXT NOT NULL,
			message TEXT NOT NULL,
			timestamp TEXT NOT NULL
		);
		CREATE TABLE ai_insights (
			id TEXT PRIMARY KEY,
			insight_type TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			severity TEXT NOT NULL,
			recommendations TEXT NOT NULL DEFAULT '[]',
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL
		);
	`)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return db
}

// testServer creates a Server backed by in-memory SQLite, plus the
// handler under test.
func testServer(t *testing.T) (*Server, http.Handler, *sql.DB) {
	t.Helper()

	db := setupTestDB(t)
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	eventBus := bus.New()
	t.Cleanup(eventBus.Close)

	events := eventlog.NewSQLiteRepository(db)
	dispatcher := relay.NewDispatcher(
		relay.NewSQLiteCommandRepository(db),
		relay.NewSQLiteConfigRepository(db),
		events,
		eventBus,
		nil,
		1,
		log,
	)

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logger:     log,
		Bus:        eventBus,
		Readings:   telemetry.NewSQLiteReadingRepository(db),
		Statuses:   telemetry.NewSQLiteRelayStatusRepository(db),
		Dispatcher: dispatcher,
		Events:     events,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	srv.hub = NewHub(srv.wsCfg, log)
	go srv.hub.Run(context.Background())

	return srv, srv.buildRouter(), db
}

func seedReading(t *testing.T, db *sql.DB, at time.Time, ph float64) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO readings (timestamp, air_temp, humidity, ph, water_temp, ec) VALUES (?, 24.5, 60, ?, 20.1, 1100)",
		at.UTC().Format(time.RFC3339), ph,
	)
	if err != nil {
		t.Fatalf("seeding reading: %v", err)
	}
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHandleHealth(t *testing.T) {
	_, handler, _ := testServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestReadings(t *testing.T) {
	_, handler, db := testServer(t)

	t.Run("latest empty returns 404", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/readings/latest", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	now := time.Now().UTC()
	seedReading(t, db, now.Add(-2*time.Minute), 6.0)
	seedReading(t, db, now.Add(-time.Minute), 6.1)
	seedReading(t, db, now, 6.2)

	t.Run("latest", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/readings/latest", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["ph"] != 6.2 {
			t.Errorf("ph = %v, want 6.2 (newest reading)", body["ph"])
		}
	})

	t.Run("list with limit", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/readings?limit=2", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["count"] != float64(2) {
			t.Errorf("count = %v, want 2", body["count"])
		}
	})

	t.Run("bad since rejected", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/readings?since=yesterday", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("csv export", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/readings/export", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
			t.Errorf("Content-Type = %q, want text/csv", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
			t.Errorf("Content-Disposition = %q", cd)
		}

		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		if len(lines) != 4 { // header + 3 readings
			t.Fatalf("csv lines = %d, want 4: %q", len(lines), rec.Body.String())
		}
		if !strings.HasPrefix(lines[0], "Timestamp,pH,") {
			t.Errorf("csv header = %q", lines[0])
		}
		// Oldest first.
		if !strings.Contains(lines[1], "6.00") || !strings.Contains(lines[3], "6.20") {
			t.Errorf("csv rows not oldest-first: %v", lines[1:])
		}
	})
}

func TestRelayCommands(t *testing.T) {
	_, handler, db := testServer(t)

	t.Run("issue command", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/relays/2/command", `{"command": true}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		body := decodeBody(t, rec)
		if body["command_id"] == nil {
			t.Error("response missing command_id")
		}
	})

	t.Run("invalid index rejected", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/relays/8/command", `{"command": false}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing command field rejected", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/relays/2/command", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("ping creates sentinel command", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/relays/ping", "")
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}

		var relayIndex int
		err := db.QueryRow("SELECT relay_index FROM relay_commands ORDER BY id DESC LIMIT 1").Scan(&relayIndex)
		if err != nil {
			t.Fatalf("querying ping row: %v", err)
		}
		if relayIndex != relay.PingRelayIndex {
			t.Errorf("relay_index = %d, want %d", relayIndex, relay.PingRelayIndex)
		}
	})

	t.Run("pending then executed", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/relays/commands?pending=true", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := decodeBody(t, rec)
		commands, ok := body["commands"].([]any)
		if !ok || len(commands) == 0 {
			t.Fatalf("pending commands = %v, want non-empty", body["commands"])
		}

		first, ok := commands[0].(map[string]any)
		if !ok {
			t.Fatalf("command entry = %T", commands[0])
		}
		id := int64(first["id"].(float64))

		rec = doJSON(t, handler, http.MethodPost, fmt.Sprintf("/api/v1/relays/commands/%d/executed", id), "")
		if rec.Code != http.StatusOK {
			t.Fatalf("mark executed status = %d, want 200", rec.Code)
		}

		rec = doJSON(t, handler, http.MethodGet, "/api/v1/relays/commands?pending=true", "")
		body = decodeBody(t, rec)
		remaining, _ := body["commands"].([]any)
		if len(remaining) != len(commands)-1 {
			t.Errorf("pending = %d after claim, want %d", len(remaining), len(commands)-1)
		}
	})

	t.Run("mark executed missing command", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/relays/commands/99999/executed", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestRelayConfigs(t *testing.T) {
	_, handler, _ := testServer(t)

	t.Run("save and read back", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPut, "/api/v1/relays/3/config",
			`{"mode": "temperature", "name": "Exhaust Fan", "temp_threshold_on": 29.5, "temp_threshold_off": 23.5}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("put status = %d, want 200: %s", rec.Code, rec.Body.String())
		}

		rec = doJSON(t, handler, http.MethodGet, "/api/v1/relays/3/config", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("get status = %d, want 200", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["mode"] != "temperature" || body["name"] != "Exhaust Fan" {
			t.Errorf("config = %v", body)
		}
		if body["temp_threshold_on"] != 29.5 || body["temp_threshold_off"] != 23.5 {
			t.Errorf("thresholds = %v / %v", body["temp_threshold_on"], body["temp_threshold_off"])
		}
	})

	t.Run("invalid mode rejected", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPut, "/api/v1/relays/3/config", `{"mode": "turbo"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing config returns 404", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/relays/5/config", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("list", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/relays/configs", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := decodeBody(t, rec)
		configs, _ := body["configs"].([]any)
		if len(configs) != 1 {
			t.Errorf("configs = %d, want 1", len(configs))
		}
	})
}

func TestRelayStatus(t *testing.T) {
	_, handler, db := testServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/relays/status", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("empty status = %d, want 404", rec.Code)
	}

	_, err := db.Exec(
		"INSERT INTO relay_status (timestamp, relay1_led, relay2_pump) VALUES (?, 1, 1)",
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("seeding status: %v", err)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/relays/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["relay1_led"] != true || body["relay3_ph_up"] != false {
		t.Errorf("snapshot = %v", body)
	}
}

func TestListEvents(t *testing.T) {
	_, handler, db := testServer(t)

	for i := 0; i < 3; i++ {
		_, err := db.Exec(
			"INSERT INTO event_logs (event_type, message, timestamp) VALUES (?, ?, ?)",
			eventlog.TypeReadingReceived, fmt.Sprintf("reading %d", i),
			time.Now().UTC().Add(time.Duration(i)*time.Second).Format(time.RFC3339),
		)
		if err != nil {
			t.Fatalf("seeding events: %v", err)
		}
	}
	_, err := db.Exec(
		"INSERT INTO event_logs (event_type, message, timestamp) VALUES (?, ?, ?)",
		eventlog.TypeMQTTPing, "ping requested via dashboard", time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("seeding events: %v", err)
	}

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/events?type=reading_received", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["total"] != float64(3) {
		t.Errorf("total = %v, want 3 (type filter applied)", body["total"])
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/events?limit=bogus", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestInsightsDisabled(t *testing.T) {
	_, handler, _ := testServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/insights", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/insights/analyze", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("analyze status = %d, want 400 when disabled", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	_, handler, _ := testServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestRequestIDHeader(t *testing.T) {
	_, handler, _ := testServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/health", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-supplied" {
		t.Errorf("X-Request-ID = %q, want client-supplied", got)
	}
}
