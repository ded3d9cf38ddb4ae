package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/keepdeck/keep/internal/domain"
	"github.com/keepdeck/keep/internal/httpserver/deps"
	"github.com/keepdeck/keep/internal/logger"
)

type resourceListResponse struct {
	Resources []*domain.Resource `json:"resources"`
	Total     int                `json:"total"`
	Visible   int                `json:"visible"`
}

// ListResources returns the catalog, narrowed by the optional filter
// query parameters: q (text term), tags (comma-separated), combinator
// ("any" | "all", default any).
func ListResources(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := domain.FilterQuery{
			Term:       strings.TrimSpace(r.URL.Query().Get("q")),
			Combinator: domain.CombinatorAny,
		}
		if raw := r.URL.Query().Get("tags"); raw != "" {
			for _, t := range strings.Split(raw, ",") {
				if t = strings.TrimSpace(t); t != "" {
					query.Tags = append(query.Tags, t)
				}
			}
		}
		if r.URL.Query().Get("combinator") == string(domain.CombinatorAll) {
			query.Combinator = domain.CombinatorAll
		}

		visible := d.Catalog.Filtered(query)
		writeJSON(w, http.StatusOK, resourceListResponse{
			Resources: visible,
			Total:     d.Catalog.Len(),
			Visible:   len(visible),
		})
	}
}

// GetResource returns one resource by ID.
func GetResource(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		resource, ok := d.Catalog.Get(id)
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "resource not found"})
			return
		}
		writeJSON(w, http.StatusOK, resource)
	}
}

// DeleteResource removes one resource from the catalog.
func DeleteResource(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Catalog.Remove(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		d.Logger.Info("resource removed",
			logger.String("resource_id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

type tagRequest struct {
	Tag string `json:"tag"`
}

type tagResponse struct {
	Added    bool             `json:"added"`
	Resource *domain.Resource `json:"resource"`
}

// AddResourceTag adds one tag to a resource. Adding a tag the resource
// already carries reports added=false with a 200, not an error.
func AddResourceTag(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req tagRequest
		if !decodeBody(w, r, &req) {
			return
		}
		req.Tag = strings.TrimSpace(req.Tag)
		if req.Tag == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "tag must not be empty"})
			return
		}

		added, err := d.Catalog.AddTag(r.Context(), id, req.Tag)
		if err != nil {
			writeError(w, err)
			return
		}

		resource, _ := d.Catalog.Get(id)
		writeJSON(w, http.StatusOK, tagResponse{Added: added, Resource: resource})
	}
}

// RemoveResourceTag removes one tag from a resource. Removing an absent
// tag is a 400: the client's view is stale.
func RemoveResourceTag(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		tag := chi.URLParam(r, "tag")

		if err := d.Catalog.RemoveTag(r.Context(), id, tag); err != nil {
			writeError(w, err)
			return
		}

		resource, _ := d.Catalog.Get(id)
		writeJSON(w, http.StatusOK, resource)
	}
}
