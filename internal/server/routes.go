package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		// Lifecycle
		r.Post("/init", s.handleInit)
		r.Post("/load", s.handleLoad)
		r.Post("/chat", s.handleChat)
		r.Get("/status", s.handleStatus)

		// Archives and configuration
		r.Get("/records", s.handleRecords)
		r.Get("/configs", s.handleConfigs)

		// Post-session evaluation
		r.Post("/sessions/{index}/evaluate", s.handleEvaluate)

		// Event streaming (SSE)
		r.Get("/events", s.handleEvents)
	})
}
