/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the rostering frontend

ROUTE GROUPS:
  /api/employees/*      Staff directory
  /api/templates/*      Templates and their hierarchy
  /api/rosters/*        Dated rosters and their hierarchy
  /api/shifts/*         Roster shifts by id
  /api/timesheets/*     Attendance
  /api/bids/*           Shift bidding
  /api/scenarios/*      Demo scenarios
  /metrics              Prometheus exposition
  /healthz              Liveness

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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultAllowedOrigins are the dev-server origins of the frontend.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// RouterOptions tune NewRouter. The zero value serves the default CORS
// origins and the default Prometheus registry.
type RouterOptions struct {
	AllowedOrigins []string
	Gatherer       prometheus.Gatherer
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = DefaultAllowedOrigins
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.ListTemplates)
			r.Post("/", h.CreateTemplate)
			r.Post("/import", h.ImportTemplate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetTemplate)
				r.Put("/", h.UpdateTemplate)
				r.Delete("/", h.DeleteTemplate)
				r.Post("/clone", h.CloneTemplate)
				r.Get("/export", h.ExportTemplate)
				mountHierarchy(r, "id", h.templateOps())
			})
		})

		r.Route("/rosters", func(r chi.Router) {
			r.Get("/", h.ListRosters)
			r.Post("/", h.CreateRoster)
			r.Route("/{date}", func(r chi.Router) {
				r.Get("/", h.GetRoster)
				r.Post("/publish", h.PublishRoster)
				r.Get("/open-shifts", h.ListOpenShifts)
				mountHierarchy(r, "date", h.rosterOps())
			})
		})

		r.Route("/shifts/{shiftID}", func(r chi.Router) {
			r.Get("/", h.LocateShift)
			r.Post("/assign", h.AssignShift)
			r.Get("/applicants", h.ListApplicants)
		})

		r.Route("/timesheets", func(r chi.Router) {
			r.Get("/", h.ListTimesheets)
			r.Get("/{date}", h.GetTimesheet)
			r.Post("/{date}/shifts/{gid}/{sid}/{shid}/{action}", h.TimesheetAction)
		})

		r.Route("/bids", func(r chi.Router) {
			r.Get("/", h.ListBids)
			r.Post("/", h.CreateBid)
			r.Get("/{id}", h.GetBid)
			r.Get("/{id}/conflicts", h.GetBidConflicts)
			r.Put("/{id}/status", h.UpdateBidStatus)
			r.Delete("/{id}", h.WithdrawBid)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
