package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/keepdeck/keep/internal/catalog"
	"github.com/keepdeck/keep/internal/intake"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain errors to HTTP statuses. Rejected session
// actions carry their reason code so clients can react precisely.
func writeError(w http.ResponseWriter, err error) {
	var verr *intake.ValidationError
	if errors.As(err, &verr) {
		status := http.StatusBadRequest
		switch verr.Code {
		case intake.ReasonBusy:
			status = http.StatusConflict
		case intake.ReasonSessionDestroyed:
			status = http.StatusGone
		}
		writeJSON(w, status, errorResponse{Error: verr.Message, Code: string(verr.Code)})
		return
	}

	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, intake.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, catalog.ErrTagNotPresent):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}
