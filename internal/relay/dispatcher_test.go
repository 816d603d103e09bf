package relay

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aquasys/aquasys-core/internal/bus"
	"github.com/aquasys/aquasys-core/internal/eventlog"
	"github.com/aquasys/aquasys-core/internal/infrastructure/logging"
)

// fakePublisher records publishes and simulates connection state.
type fakePublisher struct {
	connected bool
	topics    []string
	payloads  [][]byte
}

func (f *fakePublisher) Publish(topic string, payload []byte, _ byte, _ bool) error {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakePublisher) IsConnected() bool { return f.connected }

func setupDispatcher(t *testing.T, publisher Publisher) (*Dispatcher, *sql.DB) {
	t.Helper()

	db := setupTestDB(t)
	eventBus := bus.New()
	t.Cleanup(eventBus.Close)

	dispatcher := NewDispatcher(
		NewSQLiteCommandRepository(db),
		NewSQLiteConfigRepository(db),
		eventlog.NewSQLiteRepository(db),
		eventBus,
		publisher,
		1,
		logging.Default(),
	)
	return dispatcher, db
}

func TestIssueCommand(t *testing.T) {
	dispatcher, db := setupDispatcher(t, &fakePublisher{connected: true})
	ctx := context.Background()

	id, err := dispatcher.IssueCommand(ctx, 2, true)
	if err != nil {
		t.Fatalf("IssueCommand() error = %v", err)
	}
	if id == 0 {
		t.Error("IssueCommand() returned zero id")
	}

	// Row created with executed=false, and nothing in this core ever
	// flips it: there is no executor here.
	var executed bool
	if err := db.QueryRow("SELECT executed FROM relay_commands WHERE id = ?", id).Scan(&executed); err != nil {
		t.Fatalf("querying command: %v", err)
	}
	if executed {
		t.Error("command created with executed=true, want false")
	}

	pending, err := dispatcher.PendingCommands(ctx)
	if err != nil {
		t.Fatalf("PendingCommands() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id {
		t.Errorf("pending = %+v, want the issued command", pending)
	}

	// relay_command event recorded.
	var eventType string
	if err := db.QueryRow("SELECT event_type FROM event_logs").Scan(&eventType); err != nil {
		t.Fatalf("querying event log: %v", err)
	}
	if eventType != eventlog.TypeRelayCommand {
		t.Errorf("event_type = %q, want %q", eventType, eventlog.TypeRelayCommand)
	}
}

func TestIssueCommand_InvalidIndex(t *testing.T) {
	dispatcher, _ := setupDispatcher(t, nil)

	for _, index := range []int{-1, -2, 8, 100} {
		if _, err := dispatcher.IssueCommand(context.Background(), index, true); !errors.Is(err, ErrInvalidRelayIndex) {
			t.Errorf("IssueCommand(%d) error = %v, want ErrInvalidRelayIndex", index, err)
		}
	}
}

func TestPing(t *testing.T) {
	dispatcher, db := setupDispatcher(t, nil)
	ctx := context.Background()

	id, err := dispatcher.Ping(ctx)
	if err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	var relayIndex int
	if err := db.QueryRow("SELECT relay_index FROM relay_commands WHERE id = ?", id).Scan(&relayIndex); err != nil {
		t.Fatalf("querying ping command: %v", err)
	}
	if relayIndex != PingRelayIndex {
		t.Errorf("relay_index = %d, want sentinel %d", relayIndex, PingRelayIndex)
	}

	var eventType string
	if err := db.QueryRow("SELECT event_type FROM event_logs").Scan(&eventType); err != nil {
		t.Fatalf("querying event log: %v", err)
	}
	if eventType != eventlog.TypeMQTTPing {
		t.Errorf("event_type = %q, want %q", eventType, eventlog.TypeMQTTPing)
	}
}

func TestSaveConfig_PublishesWhenConnected(t *testing.T) {
	publisher := &fakePublisher{connected: true}
	dispatcher, _ := setupDispatcher(t, publisher)

	saved, err := dispatcher.SaveConfig(context.Background(), Config{
		RelayIndex: 0,
		Mode:       ModeLed,
		Name:       "Grow Light",
		LedOnHour:  7,
	})
	if err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}
	if saved.UpdatedAt.IsZero() {
		t.Error("SaveConfig() did not stamp UpdatedAt")
	}

	if len(publisher.topics) != 1 || publisher.topics[0] != "aquasys/relay/config" {
		t.Fatalf("published topics = %v, want [aquasys/relay/config]", publisher.topics)
	}

	var msg map[string]any
	if err := json.Unmarshal(publisher.payloads[0], &msg); err != nil {
		t.Fatalf("wire payload not JSON: %v", err)
	}
	if msg["mode"] != float64(1) {
		t.Errorf("wire mode = %v, want 1 (led)", msg["mode"])
	}
	if msg["on_hour"] != float64(7) || msg["off_hour"] != float64(22) {
		t.Errorf("wire params = %v, want on_hour 7, off_hour default 22", msg)
	}
}

func TestSaveConfig_DisconnectedStillSaves(t *testing.T) {
	publisher := &fakePublisher{connected: false}
	dispatcher, db := setupDispatcher(t, publisher)

	_, err := dispatcher.SaveConfig(context.Background(), Config{
		RelayIndex: 4,
		Mode:       ModeHumidity,
	})
	if err != nil {
		t.Fatalf("SaveConfig() error = %v, want success despite disconnect", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM relay_configs WHERE relay_index = 4").Scan(&count); err != nil {
		t.Fatalf("querying configs: %v", err)
	}
	if count != 1 {
		t.Errorf("config rows = %d, want 1", count)
	}

	if len(publisher.topics) != 0 {
		t.Errorf("publishes = %v, want none while disconnected", publisher.topics)
	}
}

func TestSaveConfig_Validation(t *testing.T) {
	dispatcher, _ := setupDispatcher(t, nil)
	ctx := context.Background()

	if _, err := dispatcher.SaveConfig(ctx, Config{RelayIndex: 9, Mode: ModeLed}); !errors.Is(err, ErrInvalidRelayIndex) {
		t.Errorf("SaveConfig(bad index) error = %v, want ErrInvalidRelayIndex", err)
	}
	if _, err := dispatcher.SaveConfig(ctx, Config{RelayIndex: 1, Mode: "turbo"}); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("SaveConfig(bad mode) error = %v, want ErrInvalidMode", err)
	}
}

func TestMarkExecuted(t *testing.T) {
	dispatcher, _ := setupDispatcher(t, nil)
	ctx := context.Background()

	id, err := dispatcher.IssueCommand(ctx, 1, true)
	if err != nil {
		t.Fatalf("IssueCommand() error = %v", err)
	}

	if err := dispatcher.MarkExecuted(ctx, id); err != nil {
		t.Fatalf("MarkExecuted() error = %v", err)
	}

	pending, err := dispatcher.PendingCommands(ctx)
	if err != nil {
		t.Fatalf("PendingCommands() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d after executor claim, want 0", len(pending))
	}
}
