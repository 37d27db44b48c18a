package portal

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(s *Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.Health)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/fees", func(r chi.Router) {
		r.Get("/categories", s.ListCategories)
		r.Post("/resolve", s.ResolveFee)
	})
	r.Route("/documents/{type}", func(r chi.Router) {
		r.Post("/", s.BuildDocument)
		r.Post("/render", s.RenderDocument)
		r.Post("/export", s.ExportDocument)
		r.Get("/{number}/export", s.ExportState)
	})
	r.Post("/verify", s.Verify)
	r.Get("/downloads/*", s.Download)
	r.Get("/admin/exports/audit", s.ExportAudit)
	return r
}
