package api

import (
	"errors"
	"net/http"

	"github.com/aquasys/aquasys-core/internal/insights"
)

// handleListInsights returns the latest analysis run's findings.
func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		writeJSON(w, http.StatusOK, map[string]any{"insights": []any{}})
		return
	}

	active, err := s.analyzer.ActiveInsights(r.Context())
	if err != nil {
		s.logger.Error("failed to list insights", "error", err)
		writeInternalError(w, "failed to list insights")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"insights": active})
}

// handleAnalyze triggers an AI analysis run over recent telemetry.
//
// An empty telemetry history is not an error: the response reports
// that there is nothing to analyze yet. Gateway failures are absorbed
// upstream and surface here as a placeholder insight.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		writeBadRequest(w, "insights are disabled in configuration")
		return
	}

	generated, err := s.analyzer.Analyze(r.Context())
	switch {
	case errors.Is(err, insights.ErrNoData):
		writeJSON(w, http.StatusOK, map[string]any{
			"message":        "not enough data for analysis",
			"insights_count": 0,
		})
	case errors.Is(err, insights.ErrDisabled):
		writeBadRequest(w, "insights are disabled in configuration")
	case err != nil:
		s.logger.Error("analysis run failed", "error", err)
		writeInternalError(w, "analysis run failed")
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"message":        "analysis completed",
			"insights_count": len(generated),
			"insights":       generated,
		})
	}
}
