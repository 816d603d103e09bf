// AquaSim - AquaSys device simulator
//
// Publishes synthetic sensor readings and relay status snapshots to the
// MQTT broker on the same topics the real ESP32 modules use. Useful for
// exercising the full Core ingest pipeline (broker -> router -> SQLite
// -> WebSocket) without hardware on the bench.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aquasys/aquasys-core/internal/infrastructure/config"
	"github.com/aquasys/aquasys-core/internal/infrastructure/logging"
	"github.com/aquasys/aquasys-core/internal/infrastructure/mqtt"
)

// sensorPayload mirrors the wire format of the sensor module firmware.
type sensorPayload struct {
	PH        float64 `json:"ph"`
	EC        float64 `json:"ec"`
	AirTemp   float64 `json:"air_temp"`
	Humidity  float64 `json:"humidity"`
	WaterTemp float64 `json:"water_temp"`
}

// relayStatusPayload mirrors the wire format of the relay module firmware.
type relayStatusPayload struct {
	Relay1Led      bool `json:"relay1_led"`
	Relay2Pump     bool `json:"relay2_pump"`
	Relay3PhUp     bool `json:"relay3_ph_up"`
	Relay4Fan      bool `json:"relay4_fan"`
	Relay5Humidity bool `json:"relay5_humidity"`
	Relay6EC       bool `json:"relay6_ec"`
	Relay7CO2      bool `json:"relay7_co2"`
	Relay8Generic  bool `json:"relay8_generic"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		host     = flag.String("host", "127.0.0.1", "MQTT broker host")
		port     = flag.Int("port", 1883, "MQTT broker port")
		clientID = flag.String("client-id", "aquasim", "MQTT client ID")
		qos      = flag.Int("qos", 1, "MQTT QoS level (0-2)")
		interval = flag.Duration("interval", 10*time.Second, "interval between sensor readings")
		count    = flag.Int("count", 0, "number of readings to publish (0 = run until interrupted)")
	)
	flag.Parse()

	log := logging.Default().With("component", "aquasim")

	client, err := mqtt.Connect(config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     *host,
			Port:     *port,
			ClientID: *clientID,
		},
		QoS: *qos,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     30,
		},
	})
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer client.Close()

	log.Info("connected to broker",
		"broker", fmt.Sprintf("%s:%d", *host, *port),
		"interval", interval.String(),
	)

	sim := newSimulator()
	topics := mqtt.Topics{}
	publishQoS := byte(*qos) //nolint:gosec // flag value is 0..2

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	published := 0
	for {
		reading := sim.nextReading()
		if err := publishJSON(client, topics.SensorsAll(), publishQoS, reading); err != nil {
			log.Error("publishing sensor reading", "error", err)
		} else {
			log.Info("published sensor reading",
				"ph", fmt.Sprintf("%.2f", reading.PH),
				"ec", fmt.Sprintf("%.0f", reading.EC),
				"air_temp", fmt.Sprintf("%.1f", reading.AirTemp),
			)
		}

		// Relay state changes far less often than sensor values drift.
		if sim.maybeToggleRelay() {
			status := sim.relayStatus()
			if err := publishJSON(client, topics.RelayStatus(), publishQoS, status); err != nil {
				log.Error("publishing relay status", "error", err)
			} else {
				log.Info("published relay status")
			}
		}

		published++
		if *count > 0 && published >= *count {
			log.Info("simulation complete", "published", published)
			return nil
		}

		select {
		case <-ctx.Done():
			log.Info("shutting down", "published", published)
			return nil
		case <-ticker.C:
		}
	}
}

func publishJSON(client *mqtt.Client, topic string, qos byte, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	return client.Publish(topic, data, qos, false)
}

// simulator produces a slow random walk around healthy hydroponic
// values so consecutive readings look like a real system, not noise.
type simulator struct {
	rng    *rand.Rand
	ph     float64
	ec     float64
	air    float64
	hum    float64
	water  float64
	relays [8]bool
}

func newSimulator() *simulator {
	return &simulator{
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // simulation only
		ph:    6.0,
		ec:    1100,
		air:   24,
		hum:   60,
		water: 20,
	}
}

func (s *simulator) nextReading() sensorPayload {
	s.ph = drift(s.rng, s.ph, 0.05, 5.0, 7.0)
	s.ec = drift(s.rng, s.ec, 15, 700, 1600)
	s.air = drift(s.rng, s.air, 0.3, 18, 32)
	s.hum = drift(s.rng, s.hum, 1.0, 35, 80)
	s.water = drift(s.rng, s.water, 0.2, 16, 24)

	return sensorPayload{
		PH:        round2(s.ph),
		EC:        round2(s.ec),
		AirTemp:   round2(s.air),
		Humidity:  round2(s.hum),
		WaterTemp: round2(s.water),
	}
}

// maybeToggleRelay flips a random relay roughly once every ten cycles
// and reports whether the state changed.
func (s *simulator) maybeToggleRelay() bool {
	if s.rng.Intn(10) != 0 {
		return false
	}
	index := s.rng.Intn(len(s.relays))
	s.relays[index] = !s.relays[index]
	return true
}

func (s *simulator) relayStatus() relayStatusPayload {
	return relayStatusPayload{
		Relay1Led:      s.relays[0],
		Relay2Pump:     s.relays[1],
		Relay3PhUp:     s.relays[2],
		Relay4Fan:      s.relays[3],
		Relay5Humidity: s.relays[4],
		Relay6EC:       s.relays[5],
		Relay7CO2:      s.relays[6],
		Relay8Generic:  s.relays[7],
	}
}

// drift moves value by a random step within [-step, step], clamped to
// [min, max].
func drift(rng *rand.Rand, value, step, min, max float64) float64 {
	value += (rng.Float64()*2 - 1) * step
	if value < min {
		value = min
	}
	if value > max {
		value = max
	}
	return value
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
