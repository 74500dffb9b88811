package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cwbudde/algo-synthctl/player"
	"github.com/cwbudde/algo-synthctl/synth"
)

var errBadRequest = errors.New("bad request")

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", slog.Any("error", err))
	}
}

// writeError maps err onto a status code and writes {"error": ...}.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, synth.ErrUnknownParam):
		status = http.StatusNotFound
	case errors.Is(err, player.ErrNoteRange), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, player.ErrNilSettings):
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.Any("error", err))
	} else {
		s.logger.Debug("request rejected", slog.Any("error", err))
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
