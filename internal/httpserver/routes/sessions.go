package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/keepdeck/keep/internal/httpserver/deps"
	"github.com/keepdeck/keep/internal/httpserver/handlers"
)

func init() { Register(registerSessions) }

func registerSessions(r chi.Router, d deps.Deps) {
	r.Post("/sessions", handlers.OpenSession(d))
	r.Get("/sessions/{id}", handlers.GetSession(d))
	r.Post("/sessions/{id}/candidates", handlers.SelectCandidates(d))
	r.Post("/sessions/{id}/input", handlers.SetURLInput(d))
	r.Post("/sessions/{id}/metadata", handlers.SetBulkMetadata(d))
	r.Post("/sessions/{id}/candidate-metadata", handlers.SetCandidateMetadata(d))
	r.Post("/sessions/{id}/archival", handlers.ConfigureArchival(d))
	r.Post("/sessions/{id}/estimate", handlers.EstimateCosts(d))
	r.Post("/sessions/{id}/advance", handlers.AdvanceSession(d))
	r.Post("/sessions/{id}/back", handlers.BackSession(d))
	r.Post("/sessions/{id}/commit", handlers.CommitSession(d))
	r.Delete("/sessions/{id}", handlers.CancelSession(d))
}
