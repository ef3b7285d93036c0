package web

import (
	"goalwatch-bot/api/dispatch"
)

// StatusSource exposes a dispatcher snapshot to the HTTP handlers.
type StatusSource interface {
	Status() dispatch.Status
}

// Config holds the configuration for the web server
type Config struct {
	Addr       string
	Dispatcher StatusSource
}

// Server is the HTTP server that exposes operational state
type Server struct {
	dispatcher StatusSource
}
