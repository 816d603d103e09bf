package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aquasys/aquasys-core/internal/telemetry"
)

// handleLatestReading returns the most recent sensor reading.
func (s *Server) handleLatestReading(w http.ResponseWriter, r *http.Request) {
	reading, err := s.readings.Latest(r.Context())
	if errors.Is(err, telemetry.ErrNotFound) {
		writeNotFound(w, "no readings recorded yet")
		return
	}
	if err != nil {
		s.logger.Error("failed to load latest reading", "error", err)
		writeInternalError(w, "failed to load latest reading")
		return
	}

	writeJSON(w, http.StatusOK, reading)
}

// handleListReadings returns recent readings, newest first.
//
// Query parameters:
//   - limit: maximum rows (default 50, max 500)
//   - since: RFC3339 timestamp; only readings at or after this time
func (s *Server) handleListReadings(w http.ResponseWriter, r *http.Request) {
	filter := telemetry.ReadingFilter{}

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	if v := r.URL.Query().Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "since must be an RFC3339 timestamp")
			return
		}
		filter.Since = since
	}

	readings, err := s.readings.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list readings", "error", err)
		writeInternalError(w, "failed to list readings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"readings": readings,
		"count":    len(readings),
	})
}

// exportDateFormat accepts bare dates for the export range parameters.
const exportDateFormat = "2006-01-02"

// handleExportReadings streams readings as a CSV attachment, oldest first.
//
// Query parameters:
//   - start_date, end_date: bare dates (2006-01-02) or RFC3339 timestamps;
//     both optional, an open end defaults to the full history
func (s *Server) handleExportReadings(w http.ResponseWriter, r *http.Request) {
	start, err := parseExportBound(r.URL.Query().Get("start_date"), time.Time{})
	if err != nil {
		writeBadRequest(w, "start_date must be a date (2006-01-02) or RFC3339 timestamp")
		return
	}
	// An open end bound defaults to now plus a day so today's readings are included.
	end, err := parseExportBound(r.URL.Query().Get("end_date"), time.Now().UTC().Add(24*time.Hour))
	if err != nil {
		writeBadRequest(w, "end_date must be a date (2006-01-02) or RFC3339 timestamp")
		return
	}

	readings, err := s.readings.Range(r.Context(), start, end)
	if err != nil {
		s.logger.Error("failed to export readings", "error", err)
		writeInternalError(w, "failed to export readings")
		return
	}

	filename := fmt.Sprintf("aquasys_readings_%s.csv", time.Now().UTC().Format(exportDateFormat))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	writer := csv.NewWriter(w)
	//nolint:errcheck // Best-effort write to response; flush error surfaced below
	writer.Write([]string{"Timestamp", "pH", "EC (uS/cm)", "Air Temp (C)", "Humidity (%)", "Water Temp (C)"})
	for _, reading := range readings {
		//nolint:errcheck // Best-effort write to response; flush error surfaced below
		writer.Write([]string{
			reading.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(reading.PH, 'f', 2, 64),
			strconv.FormatFloat(reading.EC, 'f', 2, 64),
			strconv.FormatFloat(reading.AirTemp, 'f', 1, 64),
			strconv.FormatFloat(reading.Humidity, 'f', 1, 64),
			strconv.FormatFloat(reading.WaterTemp, 'f', 1, 64),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		s.logger.Warn("csv export interrupted", "error", err)
	}
}

// parseExportBound parses a date or RFC3339 bound, returning the
// fallback when the value is empty.
func parseExportBound(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	if t, err := time.Parse(exportDateFormat, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
