package router

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talavis/OrderPortal/internal/auth"
	"github.com/talavis/OrderPortal/internal/handler"
	mw "github.com/talavis/OrderPortal/internal/middleware"
)

func New(
	logger *slog.Logger,
	jwtSecret string,
	authH *handler.AuthHandler,
	formH *handler.FormHandler,
	dashH *handler.DashboardHandler,
	healthH *handler.HealthHandler,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(mw.Recovery(logger))
	r.Use(mw.Logger(logger))
	r.Use(mw.Metrics)

	r.Get("/health", healthH.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/auth/login", authH.Login)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(jwtSecret))

		r.Get("/api/auth/me", authH.Me)
		r.Post("/api/auth/accounts", authH.CreateAccount)

		r.Get("/dashboard", dashH.Dashboard)

		r.Route("/forms", func(r chi.Router) {
			r.Get("/", formH.List)
			r.Post("/", formH.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", formH.Get)
				r.Post("/", formH.Post)
				r.Delete("/", formH.Delete)

				r.Get("/edit", formH.EditPage)
				r.Post("/edit", formH.Edit)

				r.Get("/fields", formH.FieldCreatePage)
				r.Post("/fields", formH.CreateField)
				r.Get("/fields/{identifier}", formH.FieldPage)
				r.Post("/fields/{identifier}", formH.EditField)
				r.Delete("/fields/{identifier}", formH.DeleteField)

				r.Post("/copy", formH.Copy)
				r.Post("/enable", formH.Enable)
				r.Post("/disable", formH.Disable)
			})
		})
	})

	return r
}
