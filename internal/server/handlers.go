package server

import (
	"encoding/json"
	"net/http"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "tradewar-engine",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleCurrentTurn returns the global turn counter.
func (s *Server) handleCurrentTurn(w http.ResponseWriter, r *http.Request) {
	turn, err := s.turns.CurrentTurn()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"turn": turn})
}

// handleAdvanceTurn advances the simulation one turn for every country.
func (s *Server) handleAdvanceTurn(w http.ResponseWriter, r *http.Request) {
	turn, err := s.turns.AdvanceAll()
	if err != nil {
		s.log.Error().Err(err).Msg("Turn advance failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"turn": turn})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
