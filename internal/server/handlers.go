package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"runtime"
	"time"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "oscillo",
	})
}

// handleSystemStatus handles system status requests
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var portfolioCount, orderCount, snapshotCount int
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM portfolios", &portfolioCount},
		{"SELECT COUNT(*) FROM orders", &orderCount},
		{"SELECT COUNT(*) FROM performance_snapshots", &snapshotCount},
	}
	for _, c := range counts {
		if err := s.db.Conn().QueryRow(c.query).Scan(c.dest); err != nil && err != sql.ErrNoRows {
			s.log.Error().Err(err).Str("query", c.query).Msg("Failed to query count")
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "running",
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
		"portfolios":     portfolioCount,
		"orders":         orderCount,
		"snapshots":      snapshotCount,
		"memory": map[string]interface{}{
			"alloc_mb": m.Alloc / 1024 / 1024,
			"sys_mb":   m.Sys / 1024 / 1024,
			"num_gc":   m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
