package handlers

import (
	"io"
	"net/http"
)

// Healthz answers liveness probes from the host and the orchestrator.
func Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok") // nolint:errcheck
	}
}
