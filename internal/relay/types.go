package relay

import "time"

// PingRelayIndex is the reserved sentinel relay index meaning
// "ping/status probe", not a real relay.
const PingRelayIndex = -1

// Relay index bounds for real relays.
const (
	MinRelayIndex = 0
	MaxRelayIndex = 7
)

// Command is a user-requested relay state change awaiting delivery.
//
// Executed is a claim flag: it is only ever flipped by an external
// executor via MarkExecuted, never by this core.
type Command struct {
	ID         int64     `json:"id"`
	RelayIndex int       `json:"relay_index"`
	Command    bool      `json:"command"`
	Executed   bool      `json:"executed"`
	Timestamp  time.Time `json:"timestamp"`
}

// Config is the automation configuration for a single relay.
// Exactly one row exists per relay_index.
//
// All mode parameter fields are stored for every row; which of them
// are meaningful depends on Mode. Use Params() for typed access.
type Config struct {
	RelayIndex int    `json:"relay_index"`
	Name       string `json:"name"`
	Mode       Mode   `json:"mode"`

	LedOnHour  int `json:"led_on_hour"`
	LedOffHour int `json:"led_off_hour"`

	CycleOnMin  int `json:"cycle_on_min"`
	CycleOffMin int `json:"cycle_off_min"`

	PhThresholdLow  float64 `json:"ph_threshold_low"`
	PhThresholdHigh float64 `json:"ph_threshold_high"`
	PhPulseSec      int     `json:"ph_pulse_sec"`

	TempThresholdOn  float64 `json:"temp_threshold_on"`
	TempThresholdOff float64 `json:"temp_threshold_off"`

	HumidityThresholdOn  float64 `json:"humidity_threshold_on"`
	HumidityThresholdOff float64 `json:"humidity_threshold_off"`

	ECThreshold float64 `json:"ec_threshold"`
	ECPulseSec  int     `json:"ec_pulse_sec"`

	UpdatedAt time.Time `json:"updated_at"`
}

// ValidRelayIndex reports whether index addresses a real relay.
func ValidRelayIndex(index int) bool {
	return index >= MinRelayIndex && index <= MaxRelayIndex
}
