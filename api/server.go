/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, echoed in error logs
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontends

ROUTE GROUPS:
  /api/employees/*      Employees, records and balances
  /api/time-entries/*   Time entry replacement and deletion
  /api/absences/*       Absence approval workflow
  /api/holidays/*       Holiday calendars
  /api/admin/*          Rebuild, verify, cache status, rollover sweep
  /api/scenarios/*      Demo scenarios
  /health               Liveness

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultOrigins are the local frontend dev servers.
var DefaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured. With no
// origins, DefaultOrigins are allowed.
func NewRouter(h *Handler, origins ...string) *chi.Mux {
	if len(origins) == 0 {
		origins = DefaultOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetEmployee)
				r.Put("/", h.UpdateEmployee)

				r.Post("/time-entries", h.CreateTimeEntry)
				r.Get("/absences", h.ListAbsences)
				r.Post("/absences", h.CreateAbsence)
				r.Post("/corrections", h.CreateCorrection)

				r.Get("/balance", h.GetBalance)
				r.Get("/balance/{year}", h.GetYearlyBalance)
				r.Get("/balance/{year}/{month}", h.GetMonthlyBalance)
				r.Get("/calculate", h.Calculate)
				r.Get("/history", h.GetHistory)
				r.Post("/sufficiency", h.CheckSufficiency)
				r.Post("/rollover/{year}", h.Rollover)
			})
		})

		r.Route("/time-entries", func(r chi.Router) {
			r.Put("/{entryID}", h.ReplaceTimeEntry)
			r.Delete("/{entryID}", h.DeleteTimeEntry)
		})

		// Approval routes
		r.Route("/absences", func(r chi.Router) {
			r.Post("/{absenceID}/approve", h.ApproveAbsence)
			r.Post("/{absenceID}/reject", h.RejectAbsence)
		})

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/{year}", h.ListHolidays)
			r.Put("/{year}", h.LoadHolidays)
			r.Post("/{year}/defaults", h.AddDefaultHolidays)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/employees/{id}/rebuild", h.RebuildEmployee)
			r.Get("/employees/{id}/verify/{month}", h.VerifyMonth)
			r.Get("/employees/{id}/cache/{year}", h.GetCacheStatus)
			r.Post("/rollover", h.TriggerRollover)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
