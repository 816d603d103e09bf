package api

import (
	"net/http"
	"strconv"

	"github.com/aquasys/aquasys-core/internal/eventlog"
)

// handleListEvents returns event log entries, newest first.
//
// Query parameters:
//   - type: optional event type filter
//   - limit: maximum rows (default 50, max 200)
//   - offset: rows to skip for paging
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	filter := eventlog.Filter{Type: r.URL.Query().Get("type")}

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			writeBadRequest(w, "offset must be a non-negative integer")
			return
		}
		filter.Offset = offset
	}

	result, err := s.events.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list events", "error", err)
		writeInternalError(w, "failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
