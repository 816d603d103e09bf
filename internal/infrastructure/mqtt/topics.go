package mqtt

import "fmt"

// Topic prefixes for the AquaSys MQTT namespace.
//
// Core topics use the scheme aquasys/{category}/{detail}. The ESP32
// wifi provisioning topics predate the aquasys prefix and live under
// esp32/{module}/wifi/{detail}.
const (
	// TopicPrefix is the base for all AquaSys topics.
	TopicPrefix = "aquasys"

	// TopicPrefixESP32 is the base for ESP32 module provisioning topics.
	TopicPrefixESP32 = "esp32"
)

// Topics provides builders for AquaSys MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	client.Subscribe(topics.SensorsAll(), 1, handler)
type Topics struct{}

// SensorsAll returns the topic the sensor module publishes readings to.
//
// Example: aquasys/sensors/all
func (Topics) SensorsAll() string {
	return fmt.Sprintf("%s/sensors/all", TopicPrefix)
}

// RelayStatus returns the topic the relay module publishes state snapshots to.
//
// Example: aquasys/relay/status
func (Topics) RelayStatus() string {
	return fmt.Sprintf("%s/relay/status", TopicPrefix)
}

// RelayCommands returns the topic Core publishes relay commands to.
//
// Example: aquasys/relay/commands
func (Topics) RelayCommands() string {
	return fmt.Sprintf("%s/relay/commands", TopicPrefix)
}

// RelayConfig returns the topic Core publishes relay configuration to.
// Published retained so the relay module picks up config after a reboot.
//
// Example: aquasys/relay/config
func (Topics) RelayConfig() string {
	return fmt.Sprintf("%s/relay/config", TopicPrefix)
}

// SystemStatus returns the Core online/offline status topic (LWT target).
//
// Example: aquasys/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", TopicPrefix)
}

// WifiStatus returns the wifi status topic for an ESP32 module.
//
// Example: esp32/module1/wifi/status
func (Topics) WifiStatus(module string) string {
	return fmt.Sprintf("%s/%s/wifi/status", TopicPrefixESP32, module)
}

// WifiConfig returns the wifi provisioning topic for an ESP32 module.
//
// Example: esp32/module1/wifi/config
func (Topics) WifiConfig(module string) string {
	return fmt.Sprintf("%s/%s/wifi/config", TopicPrefixESP32, module)
}

// AllWifiStatus returns a pattern matching wifi status from all modules.
//
// Pattern: esp32/+/wifi/status
func (Topics) AllWifiStatus() string {
	return fmt.Sprintf("%s/+/wifi/status", TopicPrefixESP32)
}

// AllTopics returns a pattern matching all AquaSys topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: aquasys/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
