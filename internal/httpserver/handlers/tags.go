package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/keepdeck/keep/internal/httpserver/deps"
)

type tagInfo struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type tagListResponse struct {
	Tags []tagInfo `json:"tags"`
}

// ListTags returns every tag in use, lexically ordered, with usage counts.
func ListTags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx := d.Catalog.Tags()
		all := idx.AllTags()
		tags := make([]tagInfo, 0, len(all))
		for _, t := range all {
			tags = append(tags, tagInfo{Tag: t, Count: idx.Count(t)})
		}
		writeJSON(w, http.StatusOK, tagListResponse{Tags: tags})
	}
}

type suggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

// SuggestTags returns ranked completions for a prefix, excluding tags
// the caller already applied (exclude, comma-separated).
func SuggestTags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")

		var exclude []string
		if raw := r.URL.Query().Get("exclude"); raw != "" {
			for _, t := range strings.Split(raw, ",") {
				if t = strings.TrimSpace(t); t != "" {
					exclude = append(exclude, t)
				}
			}
		}

		limit := 10
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}

		suggestions := d.Catalog.Tags().Suggest(prefix, exclude, limit)
		writeJSON(w, http.StatusOK, suggestResponse{Suggestions: suggestions})
	}
}
