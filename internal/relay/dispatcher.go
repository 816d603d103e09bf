package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aquasys/aquasys-core/internal/bus"
	"github.com/aquasys/aquasys-core/internal/eventlog"
	"github.com/aquasys/aquasys-core/internal/infrastructure/logging"
	"github.com/aquasys/aquasys-core/internal/infrastructure/mqtt"
)

// Publisher is the transport surface the dispatcher needs. Implemented
// by *mqtt.Client; injected so the control path owns no globals.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// Dispatcher records relay commands and saves relay configuration.
//
// Commands are persisted, never delivered: an external executor bridge
// polls ListPending and claims commands via MarkExecuted. Config saves
// are additionally pushed to the relay module when the transport is
// connected.
type Dispatcher struct {
	commands  CommandRepository
	configs   ConfigRepository
	events    eventlog.Repository
	bus       *bus.Bus
	publisher Publisher
	logger    *logging.Logger
	qos       byte
}

// NewDispatcher creates a command dispatcher. The publisher may be nil
// in tests; config saves then skip the device push.
func NewDispatcher(
	commands CommandRepository,
	configs ConfigRepository,
	events eventlog.Repository,
	eventBus *bus.Bus,
	publisher Publisher,
	qos byte,
	logger *logging.Logger,
) *Dispatcher {
	return &Dispatcher{
		commands:  commands,
		configs:   configs,
		events:    events,
		bus:       eventBus,
		publisher: publisher,
		logger:    logger.With("component", "dispatcher"),
		qos:       qos,
	}
}

// IssueCommand records a state change request for a relay and returns
// the new command's ID. The command row is created with executed=false
// and stays pending until an external executor claims it; this method
// performs no transport publish and no retry.
func (d *Dispatcher) IssueCommand(ctx context.Context, relayIndex int, on bool) (int64, error) {
	if !ValidRelayIndex(relayIndex) {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidRelayIndex, relayIndex)
	}

	cmd := &Command{RelayIndex: relayIndex, Command: on}
	if err := d.commands.Insert(ctx, cmd); err != nil {
		return 0, fmt.Errorf("issuing command: %w", err)
	}

	action := "OFF"
	if on {
		action = "ON"
	}
	d.recordEvent(ctx, eventlog.TypeRelayCommand,
		fmt.Sprintf("command registered: relay %d - %s", relayIndex, action))

	d.bus.Publish(bus.ChannelRelayCommandCreated, cmd)

	return cmd.ID, nil
}

// Ping records a ping probe: a command row with the reserved sentinel
// relay index. The executor answers it like any other pending command,
// which proves the broker round trip end to end.
func (d *Dispatcher) Ping(ctx context.Context) (int64, error) {
	cmd := &Command{RelayIndex: PingRelayIndex, Command: true}
	if err := d.commands.Insert(ctx, cmd); err != nil {
		return 0, fmt.Errorf("issuing ping: %w", err)
	}

	d.recordEvent(ctx, eventlog.TypeMQTTPing, "ping requested via dashboard")
	d.bus.Publish(bus.ChannelRelayCommandCreated, cmd)

	return cmd.ID, nil
}

// SaveConfig validates and upserts a relay config, then pushes the
// wire translation to the relay module if the transport is connected.
//
// A disconnected transport does not fail the save: the config lands in
// storage and the module is informed on the next save while connected.
// There is no resync loop.
func (d *Dispatcher) SaveConfig(ctx context.Context, cfg Config) (*Config, error) {
	if !ValidRelayIndex(cfg.RelayIndex) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRelayIndex, cfg.RelayIndex)
	}
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, cfg.Mode)
	}

	if err := d.configs.Upsert(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("saving relay config: %w", err)
	}

	d.recordEvent(ctx, eventlog.TypeRelayConfig,
		fmt.Sprintf("config saved: relay %d mode %s", cfg.RelayIndex, cfg.Mode))

	d.bus.Publish(bus.ChannelRelayConfigUpdated, &cfg)

	d.publishConfig(cfg)

	return &cfg, nil
}

// publishConfig pushes the wire translation to the relay module.
// Skipped silently when the transport is absent or disconnected.
func (d *Dispatcher) publishConfig(cfg Config) {
	if d.publisher == nil || !d.publisher.IsConnected() {
		d.logger.Warn("transport disconnected, config not pushed to device",
			"relay_index", cfg.RelayIndex)
		return
	}

	payload, err := json.Marshal(cfg.WireMessage())
	if err != nil {
		d.logger.Error("failed to encode config wire message", "error", err)
		return
	}

	topic := mqtt.Topics{}.RelayConfig()
	if err := d.publisher.Publish(topic, payload, d.qos, true); err != nil {
		d.logger.Warn("failed to push config to device",
			"relay_index", cfg.RelayIndex, "error", err)
	}
}

// GetConfig returns the config for a relay.
func (d *Dispatcher) GetConfig(ctx context.Context, relayIndex int) (*Config, error) {
	if !ValidRelayIndex(relayIndex) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRelayIndex, relayIndex)
	}
	return d.configs.Get(ctx, relayIndex)
}

// GetAllConfigs returns all relay configs.
func (d *Dispatcher) GetAllConfigs(ctx context.Context) ([]Config, error) {
	return d.configs.GetAll(ctx)
}

// PendingCommands returns unexecuted commands, oldest first.
// This is the surface the executor bridge polls.
func (d *Dispatcher) PendingCommands(ctx context.Context) ([]Command, error) {
	return d.commands.ListPending(ctx)
}

// RecentCommands returns the newest commands up to limit.
func (d *Dispatcher) RecentCommands(ctx context.Context, limit int) ([]Command, error) {
	return d.commands.List(ctx, limit)
}

// MarkExecuted flips a command's claim flag on behalf of the executor.
func (d *Dispatcher) MarkExecuted(ctx context.Context, id int64) error {
	return d.commands.MarkExecuted(ctx, id)
}

// recordEvent writes an event log entry and announces it on the bus.
// Event log failures are logged but never fail the calling operation.
func (d *Dispatcher) recordEvent(ctx context.Context, eventType, message string) {
	entry := &eventlog.Entry{Type: eventType, Message: message}
	if err := d.events.Create(ctx, entry); err != nil {
		d.logger.Warn("failed to record event", "type", eventType, "error", err)
		return
	}
	d.bus.Publish(bus.ChannelEventLogCreated, entry)
}
