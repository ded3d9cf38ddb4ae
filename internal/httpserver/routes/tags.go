package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/keepdeck/keep/internal/httpserver/deps"
	"github.com/keepdeck/keep/internal/httpserver/handlers"
)

func init() { Register(registerTags) }

func registerTags(r chi.Router, d deps.Deps) {
	r.Get("/tags", handlers.ListTags(d))
	r.Get("/tags/suggest", handlers.SuggestTags(d))
}
