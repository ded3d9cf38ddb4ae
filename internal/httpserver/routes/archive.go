package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/keepdeck/keep/internal/httpserver/deps"
	"github.com/keepdeck/keep/internal/httpserver/handlers"
)

func init() { Register(registerArchive) }

func registerArchive(r chi.Router, d deps.Deps) {
	r.Get("/archive/status", handlers.ArchiveStatus(d))
	r.Get("/archive/balance", handlers.ArchiveBalance(d))
}
