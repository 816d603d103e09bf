package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aquasys/aquasys-core/internal/bus"
	"github.com/aquasys/aquasys-core/internal/eventlog"
	"github.com/aquasys/aquasys-core/internal/infrastructure/logging"
)

// Mirror receives copies of stored telemetry for time-series history.
// Implementations must not block; write failures never fail ingestion.
type Mirror interface {
	WriteReading(reading Reading)
	WriteRelayStatus(status RelayStatus)
}

// Gateway validates and persists telemetry, records events, and
// publishes change notifications onto the shared bus.
type Gateway struct {
	readings ReadingRepository
	statuses RelayStatusRepository
	events   eventlog.Repository
	bus      *bus.Bus
	logger   *logging.Logger

	// mirror is optional; nil disables the time-series copy.
	mirror Mirror
}

// NewGateway creates a persistence gateway.
func NewGateway(
	readings ReadingRepository,
	statuses RelayStatusRepository,
	events eventlog.Repository,
	eventBus *bus.Bus,
	logger *logging.Logger,
) *Gateway {
	return &Gateway{
		readings: readings,
		statuses: statuses,
		events:   events,
		bus:      eventBus,
		logger:   logger.With("component", "telemetry"),
	}
}

// SetMirror attaches an optional time-series mirror.
func (g *Gateway) SetMirror(mirror Mirror) {
	g.mirror = mirror
}

// ProcessSensors validates and stores a sensor payload.
//
// All five fields must be present and non-zero. A zero value is treated
// as a missing field and the whole payload is rejected: no reading row
// is written, a validation_error event records the raw payload, and
// ErrValidation is returned.
//
// On success exactly one reading row and one reading_received event are
// written, and the new reading is published on the bus. Storage
// failures record a database_error event and propagate; nothing is
// retried.
func (g *Gateway) ProcessSensors(ctx context.Context, data SensorData) (*Reading, error) {
	if data.PH == 0 || data.EC == 0 || data.AirTemp == 0 || data.Humidity == 0 || data.WaterTemp == 0 {
		raw, _ := json.Marshal(map[string]float64{ //nolint:errcheck // map of floats cannot fail to marshal
			"airTemp": data.AirTemp, "humidity": data.Humidity,
			"ph": data.PH, "waterTemp": data.WaterTemp, "ec": data.EC,
		})
		g.recordEvent(ctx, eventlog.TypeValidationError,
			fmt.Sprintf("invalid sensor data received: %s", raw))
		return nil, fmt.Errorf("%w: missing required fields", ErrValidation)
	}

	reading := &Reading{
		AirTemp:   data.AirTemp,
		Humidity:  data.Humidity,
		PH:        data.PH,
		WaterTemp: data.WaterTemp,
		EC:        data.EC,
	}

	if err := g.readings.Insert(ctx, reading); err != nil {
		g.recordEvent(ctx, eventlog.TypeDatabaseError,
			fmt.Sprintf("failed to insert reading: %v", err))
		return nil, fmt.Errorf("storing reading: %w", err)
	}

	g.recordEvent(ctx, eventlog.TypeReadingReceived,
		fmt.Sprintf("reading processed: pH %.2f, EC %.0f", reading.PH, reading.EC))

	g.bus.Publish(bus.ChannelReadingInserted, reading)

	if g.mirror != nil {
		g.mirror.WriteReading(*reading)
	}

	return reading, nil
}

// ProcessRelayStatus validates and stores a relay status snapshot.
//
// Only the first two relay fields are required; the remaining six
// default to off when absent. The asymmetry matches the relay module
// firmware, which has always reported relay1/relay2 and grew the rest
// later.
func (g *Gateway) ProcessRelayStatus(ctx context.Context, data RelayStatusData) (*RelayStatus, error) {
	if !data.HasRelay1 || !data.HasRelay2 {
		raw, _ := json.Marshal(data) //nolint:errcheck // struct of bools cannot fail to marshal
		g.recordEvent(ctx, eventlog.TypeValidationError,
			fmt.Sprintf("invalid relay status received: %s", raw))
		return nil, fmt.Errorf("%w: missing relay fields", ErrValidation)
	}

	status := &RelayStatus{
		Relay1Led:      data.Relay1Led,
		Relay2Pump:     data.Relay2Pump,
		Relay3PhUp:     data.Relay3PhUp,
		Relay4Fan:      data.Relay4Fan,
		Relay5Humidity: data.Relay5Humidity,
		Relay6EC:       data.Relay6EC,
		Relay7CO2:      data.Relay7CO2,
		Relay8Generic:  data.Relay8Generic,
	}

	if err := g.statuses.Insert(ctx, status); err != nil {
		g.recordEvent(ctx, eventlog.TypeDatabaseError,
			fmt.Sprintf("failed to insert relay status: %v", err))
		return nil, fmt.Errorf("storing relay status: %w", err)
	}

	g.recordEvent(ctx, eventlog.TypeRelayStatusReceived, "relay status snapshot stored")

	g.bus.Publish(bus.ChannelRelayStatusInserted, status)

	if g.mirror != nil {
		g.mirror.WriteRelayStatus(*status)
	}

	return status, nil
}

// recordEvent writes an event log entry and announces it on the bus.
// Event log failures are logged but never fail the calling operation.
func (g *Gateway) recordEvent(ctx context.Context, eventType, message string) {
	entry := &eventlog.Entry{Type: eventType, Message: message}
	if err := g.events.Create(ctx, entry); err != nil {
		g.logger.Warn("failed to record event", "type", eventType, "error", err)
		return
	}
	g.bus.Publish(bus.ChannelEventLogCreated, entry)
}
