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
  /api/filing-statuses  Reference data
  /api/states
  /api/cities
  /api/tax/*            Take-home computation
  /api/compare          Two-city comparison
  /api/forecast         Expense forecasting
  /api/seasonal/*       Seasonal analysis
  /api/history/import   Expense history ingestion
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

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

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Reference data
		r.Get("/filing-statuses", h.ListFilingStatuses)
		r.Get("/states", h.ListStates)
		r.Get("/cities", h.ListCities)

		// Computation
		r.Route("/tax", func(r chi.Router) {
			r.Post("/take-home", h.TakeHome)
		})
		r.Post("/compare", h.CompareCities)
		r.Post("/forecast", h.Forecast)
		r.Get("/seasonal/{city}", h.Seasonal)
		r.Post("/history/import", h.ImportHistory)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	// Landing page for anyone hitting the root in a browser
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Relocation Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Relocation Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/filing-statuses">/api/filing-statuses</a> - Filing statuses</li>
<li><a href="/api/states">/api/states</a> - States with tax rules</li>
<li><a href="/api/cities">/api/cities</a> - Known cities</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
<p>Load a scenario first: <code>POST /api/scenarios/load {"scenario_id": "tech-relocation"}</code></p>
</body>
</html>`))
	})

	return r
}
