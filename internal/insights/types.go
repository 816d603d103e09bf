package insights

import "time"

// Insight types returned by the gateway.
const (
	TypeAnomaly        = "anomaly"
	TypeTrend          = "trend"
	TypeRecommendation = "recommendation"
	TypeCorrelation    = "correlation"
)

// Severity levels.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Insight is one finding from an analysis run.
type Insight struct {
	ID              string    `json:"id"`
	Type            string    `json:"insight_type"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Severity        string    `json:"severity"`
	Recommendations []string  `json:"recommendations"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// SensorStats summarizes one sensor over the analysis window.
type SensorStats struct {
	Current float64 `json:"current"`
	Avg     float64 `json:"avg"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Stats is the full statistical snapshot fed to the gateway.
type Stats struct {
	PH        SensorStats `json:"ph"`
	EC        SensorStats `json:"ec"`
	AirTemp   SensorStats `json:"air_temp"`
	Humidity  SensorStats `json:"humidity"`
	WaterTemp SensorStats `json:"water_temp"`
	Samples   int         `json:"samples"`
}
