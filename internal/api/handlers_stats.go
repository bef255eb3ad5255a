package api

import (
	"net/http"
)

func (s *Server) handleHTTPStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "http stats unavailable", http.StatusServiceUnavailable)
		return
	}

	s.mu.Lock()
	cache := s.sess.CacheStats()
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"window": s.cfg.StatsWindow.String(),
		"stats":  s.stats.Snapshot(),
		"cache":  cache,
	})
}
