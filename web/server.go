//go:build !test

/* server.go
 * Contains the HTTP server Start function that listens for incoming connections.
 * Excluded from test coverage as it blocks and requires real network binding.
 */

package web

import (
	"log/slog"
	"net/http"
	"time"
)

// Start initializes and starts the HTTP server with the given configuration
func Start(cfg Config) error {
	s := &Server{
		dispatcher: cfg.Dispatcher,
	}

	mux := http.NewServeMux()
	// bind handler methods that have access to s.dispatcher
	mux.HandleFunc("/status", s.StatusHandler)
	mux.HandleFunc("/healthz", s.HealthHandler)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	slog.Info("HTTP server listening", "addr", cfg.Addr)
	return srv.ListenAndServe()
}
