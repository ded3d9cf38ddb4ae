package handlers

import (
	"net/http"

	"github.com/keepdeck/keep/internal/httpserver/deps"
	"github.com/keepdeck/keep/internal/logger"
)

// TriggerSnapshot requests an immediate catalog snapshot to disk.
func TriggerSnapshot(d deps.Deps) http.HandlerFunc {
	return trigger(d, "snapshot", func() chan struct{} { return d.SnapshotTrigger })
}

// TriggerVerify requests an immediate location verification pass.
func TriggerVerify(d deps.Deps) http.HandlerFunc {
	return trigger(d, "verify", func() chan struct{} { return d.VerifyTrigger })
}

func trigger(d deps.Deps, name string, ch func() chan struct{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := ch()
		if c == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: name + " is disabled"})
			return
		}

		select {
		case c <- struct{}{}:
			d.Logger.Info("manual maintenance trigger accepted",
				logger.String("trigger", name),
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
		default:
			d.Logger.Warn("maintenance trigger already in progress",
				logger.String("trigger", name),
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: name + " already in progress"})
		}
	}
}
