package influxdb

import (
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/aquasys/aquasys-core/internal/telemetry"
)

// WriteReading mirrors a stored sensor reading.
//
// The write is non-blocking; data is batched and sent asynchronously.
// A disconnected client drops the point silently: SQLite already holds
// the row and the mirror is best-effort history.
func (c *Client) WriteReading(reading telemetry.Reading) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"readings",
		map[string]string{
			"source": "sensor_module",
		},
		map[string]interface{}{
			"ph":         reading.PH,
			"ec":         reading.EC,
			"air_temp":   reading.AirTemp,
			"water_temp": reading.WaterTemp,
			"humidity":   reading.Humidity,
		},
		reading.Timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WriteRelayStatus mirrors a relay status snapshot. Booleans are stored
// as 0/1 integers so they can be graphed as state timelines.
func (c *Client) WriteRelayStatus(status telemetry.RelayStatus) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"relay_status",
		map[string]string{
			"source": "relay_module",
		},
		map[string]interface{}{
			"relay1_led":      boolToInt(status.Relay1Led),
			"relay2_pump":     boolToInt(status.Relay2Pump),
			"relay3_ph_up":    boolToInt(status.Relay3PhUp),
			"relay4_fan":      boolToInt(status.Relay4Fan),
			"relay5_humidity": boolToInt(status.Relay5Humidity),
			"relay6_ec":       boolToInt(status.Relay6EC),
			"relay7_co2":      boolToInt(status.Relay7CO2),
			"relay8_generic":  boolToInt(status.Relay8Generic),
		},
		status.Timestamp,
	)

	c.writeAPI.WritePoint(point)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
