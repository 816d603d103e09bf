package telemetry

import (
	"context"
	"encoding/json"

	"github.com/aquasys/aquasys-core/internal/infrastructure/logging"
	"github.com/aquasys/aquasys-core/internal/infrastructure/mqtt"
)

// Processor consumes decoded telemetry payloads. Implemented by Gateway.
type Processor interface {
	ProcessSensors(ctx context.Context, data SensorData) (*Reading, error)
	ProcessRelayStatus(ctx context.Context, data RelayStatusData) (*RelayStatus, error)
}

// Router dispatches inbound MQTT messages to the persistence gateway
// by topic. It owns payload decoding and key normalisation; the
// gateway only ever sees typed data.
type Router struct {
	processor Processor
	logger    *logging.Logger
}

// NewRouter creates a message router.
func NewRouter(processor Processor, logger *logging.Logger) *Router {
	return &Router{
		processor: processor,
		logger:    logger.With("component", "router"),
	}
}

// Route handles one inbound message. Unknown topics are ignored
// silently; malformed JSON is logged at warn and dropped without
// reaching the gateway. The signature matches mqtt.MessageHandler.
func (r *Router) Route(topic string, payload []byte) error {
	topics := mqtt.Topics{}

	switch topic {
	case topics.SensorsAll():
		return r.routeSensors(payload)
	case topics.RelayStatus():
		return r.routeRelayStatus(payload)
	default:
		return nil
	}
}

// routeSensors decodes a sensor payload. The sensor firmware went
// through a camelCase phase; both airTemp/waterTemp and
// air_temp/water_temp spellings are accepted.
func (r *Router) routeSensors(payload []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		r.logger.Warn("dropping malformed sensor payload", "error", err)
		return nil
	}

	data := SensorData{
		AirTemp:   extractNumber(raw, "airTemp", "air_temp"),
		Humidity:  extractNumber(raw, "humidity"),
		PH:        extractNumber(raw, "ph"),
		WaterTemp: extractNumber(raw, "waterTemp", "water_temp"),
		EC:        extractNumber(raw, "ec"),
	}

	_, err := r.processor.ProcessSensors(context.Background(), data)
	return err
}

// routeRelayStatus decodes a relay status payload.
func (r *Router) routeRelayStatus(payload []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		r.logger.Warn("dropping malformed relay status payload", "error", err)
		return nil
	}

	relay1, has1 := extractBool(raw, "relay1_led")
	relay2, has2 := extractBool(raw, "relay2_pump")

	data := RelayStatusData{
		Relay1Led:  relay1,
		Relay2Pump: relay2,
		HasRelay1:  has1,
		HasRelay2:  has2,
	}
	data.Relay3PhUp, _ = extractBool(raw, "relay3_ph_up")
	data.Relay4Fan, _ = extractBool(raw, "relay4_fan")
	data.Relay5Humidity, _ = extractBool(raw, "relay5_humidity")
	data.Relay6EC, _ = extractBool(raw, "relay6_ec")
	data.Relay7CO2, _ = extractBool(raw, "relay7_co2")
	data.Relay8Generic, _ = extractBool(raw, "relay8_generic")

	_, err := r.processor.ProcessRelayStatus(context.Background(), data)
	return err
}

// extractNumber returns the first numeric value found under the given
// keys, or 0 if none decode. A zero is indistinguishable from absence,
// which feeds the gateway's zero-rejecting validation.
func extractNumber(raw map[string]json.RawMessage, keys ...string) float64 {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			continue
		}
		var n float64
		if err := json.Unmarshal(value, &n); err == nil {
			return n
		}
	}
	return 0
}

// extractBool returns the boolean under key and whether it was present.
// The firmware reports relay state as true/false or 1/0 depending on
// version; both decode.
func extractBool(raw map[string]json.RawMessage, key string) (value, present bool) {
	rawValue, ok := raw[key]
	if !ok {
		return false, false
	}

	var b bool
	if err := json.Unmarshal(rawValue, &b); err == nil {
		return b, true
	}

	var n float64
	if err := json.Unmarshal(rawValue, &n); err == nil {
		return n != 0, true
	}

	return false, false
}
