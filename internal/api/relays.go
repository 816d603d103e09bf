package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aquasys/aquasys-core/internal/relay"
	"github.com/aquasys/aquasys-core/internal/telemetry"
)

// relayCommandRequest is the body for POST /relays/{index}/command.
type relayCommandRequest struct {
	Command *bool `json:"command"`
}

// handleRelayCommand registers an on/off command for a relay.
func (s *Server) handleRelayCommand(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeBadRequest(w, "relay index must be an integer")
		return
	}

	var req relayCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Command == nil {
		writeBadRequest(w, "command field is required")
		return
	}

	id, err := s.dispatcher.IssueCommand(r.Context(), index, *req.Command)
	if errors.Is(err, relay.ErrInvalidRelayIndex) {
		writeBadRequest(w, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("failed to issue relay command", "error", err)
		writeInternalError(w, "failed to issue relay command")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"command_id": id})
}

// handlePing registers a broker round-trip probe.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	id, err := s.dispatcher.Ping(r.Context())
	if err != nil {
		s.logger.Error("failed to issue ping", "error", err)
		writeInternalError(w, "failed to issue ping")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"command_id": id})
}

// handleRelayStatus returns the latest relay status snapshot.
func (s *Server) handleRelayStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.statuses.Latest(r.Context())
	if errors.Is(err, telemetry.ErrNotFound) {
		writeNotFound(w, "no relay status recorded yet")
		return
	}
	if err != nil {
		s.logger.Error("failed to load relay status", "error", err)
		writeInternalError(w, "failed to load relay status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// handleListConfigs returns all relay configurations.
func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.dispatcher.GetAllConfigs(r.Context())
	if err != nil {
		s.logger.Error("failed to list relay configs", "error", err)
		writeInternalError(w, "failed to list relay configs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"configs": configs})
}

// handleGetConfig returns one relay's configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeBadRequest(w, "relay index must be an integer")
		return
	}

	cfg, err := s.dispatcher.GetConfig(r.Context(), index)
	switch {
	case errors.Is(err, relay.ErrInvalidRelayIndex):
		writeBadRequest(w, err.Error())
	case errors.Is(err, relay.ErrNotFound):
		writeNotFound(w, "no config for this relay")
	case err != nil:
		s.logger.Error("failed to load relay config", "error", err)
		writeInternalError(w, "failed to load relay config")
	default:
		writeJSON(w, http.StatusOK, cfg)
	}
}

// handlePutConfig saves one relay's configuration and pushes it to the
// relay module when the broker is connected.
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeBadRequest(w, "relay index must be an integer")
		return
	}

	var cfg relay.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	// The path wins over any index in the body.
	cfg.RelayIndex = index

	saved, err := s.dispatcher.SaveConfig(r.Context(), cfg)
	switch {
	case errors.Is(err, relay.ErrInvalidRelayIndex), errors.Is(err, relay.ErrInvalidMode):
		writeBadRequest(w, err.Error())
	case err != nil:
		s.logger.Error("failed to save relay config", "error", err)
		writeInternalError(w, "failed to save relay config")
	default:
		writeJSON(w, http.StatusOK, saved)
	}
}

// handleListCommands returns relay commands. With ?pending=true it
// returns unexecuted commands oldest first, which is the surface the
// executor bridge polls.
func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("pending") == "true" {
		commands, err := s.dispatcher.PendingCommands(r.Context())
		if err != nil {
			s.logger.Error("failed to list pending commands", "error", err)
			writeInternalError(w, "failed to list pending commands")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"commands": commands})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	commands, err := s.dispatcher.RecentCommands(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list commands", "error", err)
		writeInternalError(w, "failed to list commands")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"commands": commands})
}

// handleMarkExecuted flips a command's claim flag on behalf of the executor.
func (s *Server) handleMarkExecuted(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "command id must be an integer")
		return
	}

	err = s.dispatcher.MarkExecuted(r.Context(), id)
	switch {
	case errors.Is(err, relay.ErrNotFound):
		writeNotFound(w, "command not found")
	case err != nil:
		s.logger.Error("failed to mark command executed", "error", err)
		writeInternalError(w, "failed to mark command executed")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"executed": true})
	}
}
