package relay

// Mode selects a relay's automation behaviour.
type Mode string

// All supported relay modes.
const (
	ModeUnused      Mode = "unused"
	ModeManual      Mode = "manual"
	ModeLed         Mode = "led"
	ModeCycle       Mode = "cycle"
	ModePhUp        Mode = "ph_up"
	ModePhDown      Mode = "ph_down"
	ModeTemperature Mode = "temperature"
	ModeHumidity    Mode = "humidity"
	ModeEC          Mode = "ec"
)

// Wire values for each mode, as the relay firmware expects them.
// These are part of the device protocol; never renumber.
const (
	wireUnused      = 0
	wireLed         = 1
	wireCycle       = 2
	wirePhUp        = 3
	wirePhDown      = 4
	wireTemperature = 5
	wireHumidity    = 6
	wireEC          = 7
	wireManual      = 8
)

// Default mode parameters, substituted on the wire for any field the
// stored config left at zero. Values match the firmware's own fallbacks.
const (
	defaultLedOnHour            = 6
	defaultLedOffHour           = 22
	defaultCycleOnMin           = 15
	defaultCycleOffMin          = 45
	defaultPhThresholdLow       = 5.8
	defaultPhThresholdHigh      = 6.5
	defaultPhPulseSec           = 2
	defaultTempThresholdOn      = 28.0
	defaultTempThresholdOff     = 24.0
	defaultHumidityThresholdOn  = 70.0
	defaultHumidityThresholdOff = 50.0
	defaultECThreshold          = 800.0
	defaultECPulseSec           = 3
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeUnused, ModeManual, ModeLed, ModeCycle, ModePhUp, ModePhDown,
		ModeTemperature, ModeHumidity, ModeEC:
		return true
	default:
		return false
	}
}

// Wire returns the firmware integer for the mode.
// Unknown modes translate as unused; the relay then keeps the output off.
func (m Mode) Wire() int {
	switch m {
	case ModeLed:
		return wireLed
	case ModeCycle:
		return wireCycle
	case ModePhUp:
		return wirePhUp
	case ModePhDown:
		return wirePhDown
	case ModeTemperature:
		return wireTemperature
	case ModeHumidity:
		return wireHumidity
	case ModeEC:
		return wireEC
	case ModeManual:
		return wireManual
	case ModeUnused:
		return wireUnused
	default:
		return wireUnused
	}
}

// ModeParams is the tagged union of per-mode parameter sets.
// Concrete types: LedParams, CycleParams, PhParams, TemperatureParams,
// HumidityParams, ECParams. Unused and manual modes have no parameters
// and yield nil.
type ModeParams interface {
	isModeParams()
}

// LedParams schedules a light between two hours of the day.
type LedParams struct {
	OnHour  int `json:"on_hour"`
	OffHour int `json:"off_hour"`
}

// CycleParams alternates the relay on a fixed minute cycle.
type CycleParams struct {
	OnMinutes  int `json:"on_minutes"`
	OffMinutes int `json:"off_minutes"`
}

// PhParams doses pH corrector when the reading leaves the band.
// Up selects the dosing direction.
type PhParams struct {
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
	PulseSec int     `json:"pulse_sec"`
	Up       bool    `json:"up"`
}

// TemperatureParams switches the relay on above On and off below Off.
type TemperatureParams struct {
	On  float64 `json:"on"`
	Off float64 `json:"off"`
}

// HumidityParams switches the relay on above On and off below Off.
type HumidityParams struct {
	On  float64 `json:"on"`
	Off float64 `json:"off"`
}

// ECParams doses nutrient when EC drops below the threshold.
type ECParams struct {
	Threshold float64 `json:"threshold"`
	PulseSec  int     `json:"pulse_sec"`
}

func (LedParams) isModeParams()         {}
func (CycleParams) isModeParams()       {}
func (PhParams) isModeParams()          {}
func (TemperatureParams) isModeParams() {}
func (HumidityParams) isModeParams()    {}
func (ECParams) isModeParams()          {}

// Params returns the typed parameter set for the config's mode, with
// defaults substituted for fields left at zero. Returns nil for modes
// without parameters (unused, manual) and for unknown modes.
func (c Config) Params() ModeParams {
	switch c.Mode {
	case ModeLed:
		return LedParams{
			OnHour:  intOrDefault(c.LedOnHour, defaultLedOnHour),
			OffHour: intOrDefault(c.LedOffHour, defaultLedOffHour),
		}
	case ModeCycle:
		return CycleParams{
			OnMinutes:  intOrDefault(c.CycleOnMin, defaultCycleOnMin),
			OffMinutes: intOrDefault(c.CycleOffMin, defaultCycleOffMin),
		}
	case ModePhUp, ModePhDown:
		return PhParams{
			Low:      floatOrDefault(c.PhThresholdLow, defaultPhThresholdLow),
			High:     floatOrDefault(c.PhThresholdHigh, defaultPhThresholdHigh),
			PulseSec: intOrDefault(c.PhPulseSec, defaultPhPulseSec),
			Up:       c.Mode == ModePhUp,
		}
	case ModeTemperature:
		return TemperatureParams{
			On:  floatOrDefault(c.TempThresholdOn, defaultTempThresholdOn),
			Off: floatOrDefault(c.TempThresholdOff, defaultTempThresholdOff),
		}
	case ModeHumidity:
		return HumidityParams{
			On:  floatOrDefault(c.HumidityThresholdOn, defaultHumidityThresholdOn),
			Off: floatOrDefault(c.HumidityThresholdOff, defaultHumidityThresholdOff),
		}
	case ModeEC:
		return ECParams{
			Threshold: floatOrDefault(c.ECThreshold, defaultECThreshold),
			PulseSec:  intOrDefault(c.ECPulseSec, defaultECPulseSec),
		}
	case ModeUnused, ModeManual:
		return nil
	default:
		return nil
	}
}

// WireMessage builds the config payload published to the relay module.
// Mode travels as its wire integer; parameters carry defaults for any
// field the stored config left at zero.
func (c Config) WireMessage() map[string]any {
	msg := map[string]any{
		"relay": c.RelayIndex,
		"mode":  c.Mode.Wire(),
		"name":  c.Name,
	}

	switch params := c.Params().(type) {
	case LedParams:
		msg["on_hour"] = params.OnHour
		msg["off_hour"] = params.OffHour
	case CycleParams:
		msg["on_min"] = params.OnMinutes
		msg["off_min"] = params.OffMinutes
	case PhParams:
		msg["ph_low"] = params.Low
		msg["ph_high"] = params.High
		msg["pulse_sec"] = params.PulseSec
	case TemperatureParams:
		msg["temp_on"] = params.On
		msg["temp_off"] = params.Off
	case HumidityParams:
		msg["humidity_on"] = params.On
		msg["humidity_off"] = params.Off
	case ECParams:
		msg["ec_threshold"] = params.Threshold
		msg["pulse_sec"] = params.PulseSec
	case nil:
		// unused/manual: no parameters
	}

	return msg
}

func intOrDefault(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

func floatOrDefault(value, fallback float64) float64 {
	if value == 0 {
		return fallback
	}
	return value
}
