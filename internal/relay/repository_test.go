package relay

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
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
	`)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return db
}

func TestCommandRepository(t *testing.T) {
	repo := NewSQLiteCommandRepository(setupTestDB(t))
	ctx := context.Background()

	t.Run("insert assigns id and clears executed", func(t *testing.T) {
		cmd := &Command{RelayIndex: 2, Command: true, Executed: true}
		if err := repo.Insert(ctx, cmd); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		if cmd.ID == 0 {
			t.Error("Insert() did not assign an ID")
		}
		if cmd.Executed {
			t.Error("Insert() must store executed=false regardless of input")
		}
	})

	t.Run("get", func(t *testing.T) {
		cmd := &Command{RelayIndex: 5, Command: false}
		if err := repo.Insert(ctx, cmd); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}

		got, err := repo.Get(ctx, cmd.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.RelayIndex != 5 || got.Command || got.Executed {
			t.Errorf("Get() = %+v", got)
		}

		if _, err := repo.Get(ctx, 99999); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("pending and mark executed", func(t *testing.T) {
		pending, err := repo.ListPending(ctx)
		if err != nil {
			t.Fatalf("ListPending() error = %v", err)
		}
		before := len(pending)
		if before == 0 {
			t.Fatal("expected pending commands from earlier subtests")
		}

		if err := repo.MarkExecuted(ctx, pending[0].ID); err != nil {
			t.Fatalf("MarkExecuted() error = %v", err)
		}

		pending, err = repo.ListPending(ctx)
		if err != nil {
			t.Fatalf("ListPending() error = %v", err)
		}
		if len(pending) != before-1 {
			t.Errorf("pending = %d after claim, want %d", len(pending), before-1)
		}

		if err := repo.MarkExecuted(ctx, 99999); !errors.Is(err, ErrNotFound) {
			t.Errorf("MarkExecuted(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("list newest first", func(t *testing.T) {
		commands, err := repo.List(ctx, 10)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(commands) < 2 {
			t.Fatalf("len = %d, want >= 2", len(commands))
		}
		if commands[0].ID < commands[1].ID {
			t.Error("List() not ordered newest first")
		}
	})
}

func TestConfigRepository(t *testing.T) {
	repo := NewSQLiteConfigRepository(setupTestDB(t))
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		if _, err := repo.Get(ctx, 3); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("upsert keeps one row per relay", func(t *testing.T) {
		first := &Config{RelayIndex: 3, Mode: ModeLed, Name: "Light", LedOnHour: 7, LedOffHour: 21}
		if err := repo.Upsert(ctx, first); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if first.UpdatedAt.IsZero() {
			t.Error("Upsert() did not set UpdatedAt")
		}

		second := &Config{RelayIndex: 3, Mode: ModeCycle, Name: "Pump", CycleOnMin: 10, CycleOffMin: 50}
		if err := repo.Upsert(ctx, second); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		configs, err := repo.GetAll(ctx)
		if err != nil {
			t.Fatalf("GetAll() error = %v", err)
		}
		if len(configs) != 1 {
			t.Fatalf("GetAll() len = %d, want 1 (one row per relay_index)", len(configs))
		}
		if configs[0].Mode != ModeCycle || configs[0].Name != "Pump" {
			t.Errorf("row = %+v, want last write to win", configs[0])
		}
	})

	t.Run("round trip", func(t *testing.T) {
		saved := &Config{
			RelayIndex:       6,
			Mode:             ModeTemperature,
			Name:             "Fan",
			TempThresholdOn:  29.5,
			TempThresholdOff: 23.5,
		}
		if err := repo.Upsert(ctx, saved); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}

		got, err := repo.Get(ctx, 6)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Mode != ModeTemperature || got.TempThresholdOn != 29.5 || got.TempThresholdOff != 23.5 {
			t.Errorf("Get() = %+v, want what was saved", got)
		}
	})
}
