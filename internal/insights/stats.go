package insights

import "github.com/aquasys/aquasys-core/internal/telemetry"

// analysisWindow is how many of the most recent readings feed a run.
const analysisWindow = 50

// computeStats summarizes readings ordered most recent first.
func computeStats(readings []telemetry.Reading) Stats {
	stats := Stats{Samples: len(readings)}
	if len(readings) == 0 {
		return stats
	}

	stats.PH = summarize(readings, func(r telemetry.Reading) float64 { return r.PH })
	stats.EC = summarize(readings, func(r telemetry.Reading) float64 { return r.EC })
	stats.AirTemp = summarize(readings, func(r telemetry.Reading) float64 { return r.AirTemp })
	stats.Humidity = summarize(readings, func(r telemetry.Reading) float64 { return r.Humidity })
	stats.WaterTemp = summarize(readings, func(r telemetry.Reading) float64 { return r.WaterTemp })

	return stats
}

func summarize(readings []telemetry.Reading, field func(telemetry.Reading) float64) SensorStats {
	s := SensorStats{
		Current: field(readings[0]),
		Min:     field(readings[0]),
		Max:     field(readings[0]),
	}

	var sum float64
	for _, r := range readings {
		v := field(r)
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Avg = sum / float64(len(readings))

	return s
}
