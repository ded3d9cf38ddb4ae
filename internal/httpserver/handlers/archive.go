package handlers

import (
	"net/http"

	"github.com/keepdeck/keep/internal/httpserver/deps"
)

type archiveStatusResponse struct {
	Available bool   `json:"available"`
	Gateway   string `json:"gateway,omitempty"`
}

// ArchiveStatus reports whether permanent-storage archival is usable.
func ArchiveStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, archiveStatusResponse{
			Available: d.ArchiveClient != nil,
			Gateway:   d.GatewayURL,
		})
	}
}

type balanceResponse struct {
	Balance float64 `json:"balance"`
	Unit    string  `json:"unit"`
}

// ArchiveBalance returns the wallet balance in AR tokens.
func ArchiveBalance(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ArchiveClient == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "no wallet configured"})
			return
		}
		balance, err := d.ArchiveClient.Balance(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, balanceResponse{Balance: balance, Unit: "AR"})
	}
}
