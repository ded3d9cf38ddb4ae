package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/keepdeck/keep/internal/httpserver/deps"
	"github.com/keepdeck/keep/internal/httpserver/handlers"
)

func init() { Register(registerPrefs) }

func registerPrefs(r chi.Router, d deps.Deps) {
	r.Get("/prefs/display", handlers.GetDisplayPrefs(d))
	r.Put("/prefs/display", handlers.PutDisplayPrefs(d))
}
