package handlers

import (
	"net/http"

	"github.com/keepdeck/keep/internal/httpserver/deps"
	redisstore "github.com/keepdeck/keep/internal/store/redis"
)

// GetDisplayPrefs returns the persisted display preferences.
func GetDisplayPrefs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prefs, err := d.Store.GetDisplayPrefs(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, prefs)
	}
}

// PutDisplayPrefs replaces the persisted display preferences.
func PutDisplayPrefs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var prefs redisstore.DisplayPrefs
		if !decodeBody(w, r, &prefs) {
			return
		}
		if err := d.Store.SaveDisplayPrefs(r.Context(), prefs); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, prefs)
	}
}
