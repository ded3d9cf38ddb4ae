package handlers

import (
	"net/http"

	"github.com/keepdeck/keep/internal/export"
	"github.com/keepdeck/keep/internal/httpserver/deps"
)

// ExportCatalog streams the whole catalog as a YAML snapshot.
func ExportCatalog(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := export.Marshal(d.Catalog.All())
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Header().Set("Content-Disposition", `attachment; filename="catalog.yaml"`)
		_, _ = w.Write(data)
	}
}
