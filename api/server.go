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
  /api/employees/*   Clocking, entries, summaries, balances, requests
  /api/entries/*     Entry detail, breaks, approval
  /api/balances/*    Balance detail, ledger, accrual, carryover
  /api/requests/*    Request workflow
  /api/leave-types/* Reference data
  /api/policies/*    Policy management and analysis

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
		// Employee-scoped routes
		r.Route("/employees/{id}", func(r chi.Router) {
			r.Post("/clock-in", h.ClockIn)
			r.Post("/clock-out", h.ClockOut)
			r.Get("/entries", h.ListEntries)
			r.Get("/summaries/daily", h.DailySummary)
			r.Get("/summaries/weekly", h.WeeklySummary)
			r.Get("/summaries/pay-period", h.PayPeriodSummary)
			r.Get("/balances", h.ListBalances)
			r.Post("/requests", h.SubmitRequest)
		})

		// Entry routes
		r.Route("/entries", func(r chi.Router) {
			r.Post("/", h.CreateManualEntry)
			r.Get("/{id}", h.GetEntry)
			r.Post("/{id}/breaks", h.StartBreak)
			r.Post("/{id}/breaks/{breakID}/end", h.EndBreak)
			r.Post("/{id}/approve", h.ApproveEntry)
		})

		// Balance routes
		r.Route("/balances", func(r chi.Router) {
			r.Post("/", h.CreateBalance)
			r.Get("/{id}", h.GetBalance)
			r.Get("/{id}/transactions", h.GetTransactions)
			r.Get("/{id}/projection", h.GetProjection)
			r.Post("/{id}/accrue", h.Accrue)
			r.Post("/{id}/adjust", h.Adjust)
			r.Post("/{id}/carryover", h.Carryover)
		})

		// Request workflow routes
		r.Route("/requests", func(r chi.Router) {
			r.Get("/", h.ListRequests)
			r.Get("/{id}", h.GetRequest)
			r.Post("/{id}/approve", h.ApproveRequest)
			r.Post("/{id}/deny", h.DenyRequest)
			r.Post("/{id}/cancel", h.CancelRequest)
		})

		// Reference data routes
		r.Route("/leave-types", func(r chi.Router) {
			r.Get("/", h.ListLeaveTypes)
			r.Post("/", h.CreateLeaveType)
		})

		// Policy routes
		r.Route("/policies", func(r chi.Router) {
			r.Get("/leave", h.ListLeavePolicies)
			r.Post("/leave", h.CreateLeavePolicy)
			r.Get("/overtime", h.ListOvertimePolicies)
			r.Post("/overtime", h.CreateOvertimePolicy)
			r.Post("/validate", h.ValidatePolicies)
			r.Post("/impact", h.PolicyImpact)
		})
	})

	return r
}
