// Package mqtt provides MQTT client connectivity for AquaSys Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect and capped backoff
//   - An observable connection state machine (see ConnState)
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support, restored on reconnect
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// AquaSys uses MQTT to connect the Core to the grow-room controllers:
// the ESP32 sensor module publishes readings, and the relay module
// consumes commands and publishes state snapshots.
//
//	Sensor/Relay Modules ↔ MQTT Broker ↔ AquaSys Core
//
// # Connection Lifecycle
//
// The client exposes its reconnect behaviour as an explicit state
// machine rather than hiding it inside the paho library:
//
//	Disconnected → Connecting → Connected
//	                    ↑            │ (connection lost)
//	                    └─ Backoff ←─┘
//
// Backoff delays double from reconnect.initial_delay up to
// reconnect.max_delay. State() reports the current state and
// SetOnStateChange() observes transitions.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.SensorsAll(), 1,
//	    func(topic string, payload []byte) error {
//	        return router.Route(topic, payload)
//	    })
//
//	client.Publish(mqtt.Topics{}.RelayCommands(), cmdJSON, 1, false)
package mqtt
