/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/departments/*   Department and schedule management
  /api/employees/*     Employee directory, entries, reports
  /api/time/*          Clock-in/out/break punches
  /api/admin/*         Tier policy, open-session audit

SECURITY NOTE:
  No authentication middleware. Session handling belongs to the fronting
  deployment, not this service.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Department routes
		r.Route("/departments", func(r chi.Router) {
			r.Get("/", h.ListDepartments)
			r.Post("/", h.SaveDepartment)
			r.Delete("/{id}", h.DeleteDepartment)
			r.Get("/{id}/schedule", h.GetSchedule)
			r.Put("/{id}/schedule", h.SaveSchedule)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.SaveEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
			r.Get("/{id}/entries", h.ListEntries)
			r.Get("/{id}/compliance", h.GetComplianceReport)
			r.Get("/{id}/hours", h.GetHoursReport)
		})

		// Time clock routes
		r.Route("/time", func(r chi.Router) {
			r.Post("/clock-in", h.ClockIn)
			r.Post("/clock-out", h.ClockOut)
			r.Post("/break/start", h.StartBreak)
			r.Post("/break/end", h.EndBreak)
			r.Get("/today/{employeeID}", h.GetToday)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Get("/policy", h.GetPolicy)
			r.Put("/policy", h.SavePolicy)
			r.Get("/open-sessions", h.ListOpenSessions)
		})
	})

	return r
}
