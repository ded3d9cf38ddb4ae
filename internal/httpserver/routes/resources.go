package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/keepdeck/keep/internal/httpserver/deps"
	"github.com/keepdeck/keep/internal/httpserver/handlers"
)

func init() { Register(registerResources) }

func registerResources(r chi.Router, d deps.Deps) {
	r.Get("/resources", handlers.ListResources(d))
	r.Get("/resources/{id}", handlers.GetResource(d))
	r.Delete("/resources/{id}", handlers.DeleteResource(d))
	r.Post("/resources/{id}/tags", handlers.AddResourceTag(d))
	r.Delete("/resources/{id}/tags/{tag}", handlers.RemoveResourceTag(d))
}
