/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/employees/*   Employee records, events, timeline, per-employee views
  /api/vacations/*   Period amendments
  /api/epi/*         Equipment catalog, stock, issuances
  /api/alerts/*      Compliance alerts

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

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

	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Post("/{id}/events", h.RecordEvent)
			r.Get("/{id}/timeline", h.GetTimeline)
			r.Get("/{id}/vacations", h.ListVacations)
			r.Post("/{id}/vacations", h.RecordVacation)
			r.Get("/{id}/adjustments", h.ListAdjustments)
			r.Post("/{id}/adjustments", h.RecordAdjustment)
			r.Get("/{id}/epi", h.ListEmployeeIssuances)
		})

		// Vacation routes
		r.Route("/vacations", func(r chi.Router) {
			r.Put("/{id}", h.AmendVacation)
		})

		// EPI routes
		r.Route("/epi", func(r chi.Router) {
			r.Get("/items", h.ListItems)
			r.Post("/items", h.CreateItem)
			r.Post("/items/{code}/restock", h.RestockItem)
			r.Post("/issuances", h.IssueEquipment)
			r.Post("/issuances/{id}/return", h.ReturnEquipment)
		})

		// Alert routes
		r.Route("/alerts", func(r chi.Router) {
			r.Get("/epi", h.EPIAlerts)
		})
	})

	return r
}
