// Package gateway - stats.go exposes aggregated metrics as JSON.
//
// GET /stats returns request, session, and upstream counters.
package gateway

import (
	"encoding/json"
	"net/http"
)

// handleStats returns aggregated metrics as JSON.
// Restricted to localhost to prevent external access to operational metrics.
func (g *Gateway) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.handleNotFound(w, r)
		return
	}
	if !isLoopback(r.RemoteAddr) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	_ = json.NewEncoder(w).Encode(g.metrics.FullStats())
}
