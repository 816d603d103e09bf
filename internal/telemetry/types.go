package telemetry

import "time"

// Reading is a single sensor snapshot from the grow-room module.
// Rows are write-once; the timestamp is server-assigned at insert
// unless already set.
type Reading struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	AirTemp   float64   `json:"air_temp"`
	Humidity  float64   `json:"humidity"`
	PH        float64   `json:"ph"`
	WaterTemp float64   `json:"water_temp"`
	EC        float64   `json:"ec"`
}

// RelayStatus is a snapshot of all eight relay outputs as reported by
// the relay module. Column names follow the controller wiring.
type RelayStatus struct {
	ID             int64     `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Relay1Led      bool      `json:"relay1_led"`
	Relay2Pump     bool      `json:"relay2_pump"`
	Relay3PhUp     bool      `json:"relay3_ph_up"`
	Relay4Fan      bool      `json:"relay4_fan"`
	Relay5Humidity bool      `json:"relay5_humidity"`
	Relay6EC       bool      `json:"relay6_ec"`
	Relay7CO2      bool      `json:"relay7_co2"`
	Relay8Generic  bool      `json:"relay8_generic"`
}

// SensorData is a decoded sensor payload before validation.
// Fields left at zero are treated as missing (see Gateway.ProcessSensors).
type SensorData struct {
	AirTemp   float64
	Humidity  float64
	PH        float64
	WaterTemp float64
	EC        float64
}

// RelayStatusData is a decoded relay status payload before validation.
// The Has* flags record which of the first two fields were present;
// the remaining six silently default to off when absent.
type RelayStatusData struct {
	Relay1Led      bool
	Relay2Pump     bool
	Relay3PhUp     bool
	Relay4Fan      bool
	Relay5Humidity bool
	Relay6EC       bool
	Relay7CO2      bool
	Relay8Generic  bool

	HasRelay1 bool
	HasRelay2 bool
}
