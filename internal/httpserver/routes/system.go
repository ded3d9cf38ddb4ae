package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/keepdeck/keep/internal/httpserver/deps"
	"github.com/keepdeck/keep/internal/httpserver/handlers"
)

func init() { Register(registerSystem) }

func registerSystem(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.Get("/readyz", handlers.Readyz(d))
	r.Get("/export", handlers.ExportCatalog(d))
	r.Post("/snapshot", handlers.TriggerSnapshot(d))
	r.Post("/verify", handlers.TriggerVerify(d))
}
