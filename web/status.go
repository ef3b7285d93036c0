package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// StatusHandler HTTP endpoint that reports the poller's current state as
// JSON for external monitoring
// Preconditions: HTTP server has been started, receives HTTP ResponseWriter and Http Request
// Postconditions: Writes the dispatcher status snapshot to the response
func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.dispatcher.Status()); err != nil {
		slog.Error("failed to encode status response", "error", err)
	}
}

// HealthHandler HTTP endpoint used for liveness probes
// Preconditions: HTTP server has been started
// Postconditions: Responds 200 with "ok"
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
