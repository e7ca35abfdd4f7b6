/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. CORS:          Cross-origin requests for the frontend
  2. RequestLogger: One structured (ECS) log line per request
  3. CleanPath:     Collapses double slashes
  4. Recoverer:     Panic recovery (500 instead of crash)
  5. Heartbeat:     GET /health for load balancers

ROUTE GROUPS:
  /api/reports/{kind}   Report projections
  /api/datasets         Dataset upload
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware. Reports are expected to sit behind an
  authenticating proxy that fills in the user parameter.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// NewRouter creates a router with all routes configured. origins lists the
// allowed CORS origins.
func NewRouter(h *Handler, logger *slog.Logger, origins []string) *chi.Mux {
	if logger == nil {
		logger = h.Logger
	}
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/reports/{kind}", h.Report)

		r.Post("/datasets", h.LoadDataset)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetStore)
		})
	})

	return r
}
